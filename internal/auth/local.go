// Package auth implements signup, OTP verification, login and password reset.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Pratyush-PT/EASY-Apply/internal/database"
	"github.com/Pratyush-PT/EASY-Apply/internal/mail"
	"github.com/Pratyush-PT/EASY-Apply/internal/model"
	"github.com/Pratyush-PT/EASY-Apply/internal/utilities"
)

const otpLifetime = 15 * time.Minute

// LocalAuthHandler holds DB and mail references for handler methods.
type LocalAuthHandler struct {
	DB   *database.DBinstanceStruct
	Mail mail.Sender
}

// NewLocalAuthHandler creates a new instance of LocalAuthHandler.
func NewLocalAuthHandler(db *database.DBinstanceStruct, sender mail.Sender) *LocalAuthHandler {
	return &LocalAuthHandler{
		DB:   db,
		Mail: sender,
	}
}

type signupInfo struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginInfo struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type verifyOTPInfo struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

type resetPasswordInfo struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

type loginResponse struct {
	User        model.User `json:"user"`
	AccessToken string     `json:"access_token"`
}

// issueOTP stores a fresh code on the user record and mails it.
func (lh *LocalAuthHandler) issueOTP(user *model.User, purpose string) error {
	otp, err := utilities.GenerateOTP()
	if err != nil {
		return err
	}

	expiry := time.Now().Add(otpLifetime)
	user.OTP = &otp
	user.OTPExpiry = &expiry
	if err := lh.DB.Model(user).Updates(map[string]interface{}{
		"otp":        otp,
		"otp_expiry": expiry,
	}).Error; err != nil {
		return err
	}

	subject, body := mail.OTPBody(purpose, otp)
	return lh.Mail.Send(user.Email, subject, body)
}

// SignupHandler registers a new student account and mails a verification OTP.
// @Summary Register a student account
// @Description Email must be unused and password at least 8 characters. The account stays unverified until the OTP is confirmed.
// @Tags Auth
// @Accept json
// @Produce json
// @Param Info body signupInfo true "Signup information"
// @Success 201 {object} utilities.MessageResponse "OTP sent"
// @Failure 400 {object} utilities.ErrorResponse "Info provided not met the condition"
// @Failure 500 {object} utilities.ErrorResponse "Database, hashing or mail error"
// @Router /auth/signup [post]
func (lh *LocalAuthHandler) SignupHandler(c *gin.Context) {
	var info signupInfo

	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Name, email and password (8 characters or longer) must be provided",
		})
		return
	}

	var user model.User
	err := lh.DB.Where("email = ?", info.Email).First(&user).Error

	switch {
	case err == nil:
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "User already exists",
		})
		return

	case errors.Is(err, gorm.ErrRecordNotFound):
		// Do nothing

	default:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	hashedPassword, err := utilities.HashPassword(info.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed hash password: %s", err.Error()),
		})
		return
	}

	user = model.User{
		Email:    info.Email,
		Password: hashedPassword,
		Role:     model.RoleStudent,
		EditableUserInfo: model.EditableUserInfo{
			Name: info.Name,
		},
	}
	if err := lh.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create user: %s", err.Error()),
		})
		return
	}

	if err := lh.issueOTP(&user, "signup"); err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to send OTP: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, utilities.MessageResponse{
		Message: "OTP sent to your email",
	})
}

// VerifyOTPHandler confirms a signup OTP and returns an access token.
// @Summary Verify the signup OTP
// @Tags Auth
// @Accept json
// @Produce json
// @Param Info body verifyOTPInfo true "Email and OTP"
// @Success 200 {object} loginResponse
// @Failure 400 {object} utilities.ErrorResponse "Unknown email or invalid/expired OTP"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /auth/verify-otp [post]
func (lh *LocalAuthHandler) VerifyOTPHandler(c *gin.Context) {
	var info verifyOTPInfo

	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Email and OTP must be provided",
		})
		return
	}

	var user model.User
	if err := lh.DB.Where("email = ?", info.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	if user.OTP == nil || *user.OTP != info.OTP ||
		user.OTPExpiry == nil || user.OTPExpiry.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid or expired OTP"})
		return
	}

	// Consume the code and mark the account verified
	if err := lh.DB.Model(&user).Updates(map[string]interface{}{
		"otp":        nil,
		"otp_expiry": nil,
		"verified":   true,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update user: %s", err.Error()),
		})
		return
	}
	user.OTP = nil
	user.OTPExpiry = nil
	user.Verified = true

	accessToken, err := GenerateStandardToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to generate access token: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		User:        user,
		AccessToken: accessToken,
	})
}

// LoginHandler authenticates with email and password.
// @Summary Handles local login by receiving email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param Info body loginInfo true "Credentials for login"
// @Success 200 {object} loginResponse
// @Failure 400 {object} utilities.ErrorResponse "Info provided not met the condition"
// @Failure 401 {object} utilities.ErrorResponse "Email not exist or password incorrect"
// @Failure 403 {object} utilities.ErrorResponse "Account not verified"
// @Failure 500 {object} utilities.ErrorResponse "Database or password hashing error"
// @Router /auth/login [post]
func (lh *LocalAuthHandler) LoginHandler(c *gin.Context) {
	var info loginInfo

	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Email or password is not provided",
		})
		return
	}

	var user model.User
	err := lh.DB.Preload("Resumes").Where("email = ?", info.Email).First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{
			Error: "Email or password is incorrect",
		})
		return

	case err == nil:
		// Do nothing

	default:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	if user.Password == "" || !utilities.VerifyPassword(info.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{
			Error: "Email or password is incorrect",
		})
		return
	}

	if !user.Verified {
		// Re-send a code so the student can finish verification
		if err := lh.issueOTP(&user, "signup"); err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to send OTP: %s", err.Error()),
			})
			return
		}
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "Account not verified. OTP sent to your email.",
		})
		return
	}

	accessToken, err := GenerateStandardToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to generate access token: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		User:        user,
		AccessToken: accessToken,
	})
}

// ForgotPasswordHandler mails a password reset OTP.
// @Summary Request a password reset OTP
// @Tags Auth
// @Accept json
// @Produce json
// @Param Info body object{email=string} true "Account email"
// @Success 200 {object} utilities.MessageResponse
// @Failure 404 {object} utilities.ErrorResponse "No account with this email"
// @Failure 500 {object} utilities.ErrorResponse "Database or mail error"
// @Router /auth/forgot-password [post]
func (lh *LocalAuthHandler) ForgotPasswordHandler(c *gin.Context) {
	var info struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Email must be provided",
		})
		return
	}

	var user model.User
	if err := lh.DB.Where("email = ?", info.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{
				Error: "User with this email does not exist",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	if err := lh.issueOTP(&user, "reset"); err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to send OTP: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{
		Message: "OTP sent to your email",
	})
}

// ResetPasswordHandler verifies a reset OTP and replaces the password.
// @Summary Reset the password with an OTP
// @Tags Auth
// @Accept json
// @Produce json
// @Param Info body resetPasswordInfo true "Email, OTP and the new password"
// @Success 200 {object} utilities.MessageResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid or expired OTP"
// @Failure 404 {object} utilities.ErrorResponse "No account with this email"
// @Failure 500 {object} utilities.ErrorResponse "Database or hashing error"
// @Router /auth/reset-password [post]
func (lh *LocalAuthHandler) ResetPasswordHandler(c *gin.Context) {
	var info resetPasswordInfo

	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Email, OTP, and new password (8 characters or longer) are required",
		})
		return
	}

	var user model.User
	if err := lh.DB.Where("email = ?", info.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	if user.OTP == nil || *user.OTP != info.OTP {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid or undefined OTP"})
		return
	}
	if user.OTPExpiry == nil || user.OTPExpiry.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "OTP has expired"})
		return
	}

	hashedPassword, err := utilities.HashPassword(info.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed hash password: %s", err.Error()),
		})
		return
	}

	if err := lh.DB.Model(&user).Updates(map[string]interface{}{
		"password":   hashedPassword,
		"otp":        nil,
		"otp_expiry": nil,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update user: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{
		Message: "Password reset successfully",
	})
}
