// Package profile provides HTTP handlers for student profile operations.
package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Pratyush-PT/EASY-Apply/internal/database"
	"github.com/Pratyush-PT/EASY-Apply/internal/model"
	"github.com/Pratyush-PT/EASY-Apply/internal/utilities"
)

// ProfileController handles student profile endpoints
type ProfileController struct {
	DB *database.DBinstanceStruct
}

// NewProfileController creates a new instance of ProfileController
func NewProfileController(db *database.DBinstanceStruct) *ProfileController {
	return &ProfileController{
		DB: db,
	}
}

type editProfile struct {
	model.EditableUserInfo
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GetMyProfile retrieves the calling user's profile with resumes.
// @Summary Retrieve my profile from database
// @Tags Profile
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.User "Successfully retrieve profile"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /profile/me [get]
func (pc *ProfileController) GetMyProfile(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	if err := pc.DB.Preload("Resumes").First(&user, "id = ?", user.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve user information from database: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// EditMyProfile handles editing a user's profile information, including
// retrieving the original profile from the database, updating the information, and saving the changes.
// @Summary Edit my profile
// @Description Overwrite profile fields and save into database.
// @Description Sensitive fields like id, role and resumes can't be overwritten here.
// @Tags Profile
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param profile body editProfile true "Profile info to be written"
// @Success 200 {object} model.User "Successfully overwrite"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header or request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 409 {object} utilities.ErrorResponse "Email already in use"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /profile/me [patch]
func (pc *ProfileController) EditMyProfile(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	edited := editProfile{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&edited); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	if edited.Branch != "" && !utilities.Contains(model.Branches, edited.Branch) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Unknown branch code: %s", edited.Branch),
		})
		return
	}
	if edited.CGPA != 0 {
		if edited.CGPA < 0 || edited.CGPA > 10 {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
				Error: "CGPA must be between 0 and 10",
			})
			return
		}
		// Stored at two decimal places
		edited.CGPA = math.Round(edited.CGPA*100) / 100
	}

	if edited.Email != "" && edited.Email != user.Email {
		var count int64
		if err := pc.DB.Model(&model.User{}).Where("email = ?", edited.Email).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to check email: %s", err.Error()),
			})
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, utilities.ErrorResponse{Error: "Email already in use"})
			return
		}
		user.Email = edited.Email
	}

	if edited.Password != "" {
		if len(edited.Password) < 8 {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
				Error: "Password should be 8 characters or longer",
			})
			return
		}
		hashed, err := utilities.HashPassword(edited.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed hash password: %s", err.Error()),
			})
			return
		}
		user.Password = hashed
	}

	utilities.MergeNonEmpty(&user.EditableUserInfo, &edited.EditableUserInfo)

	if err := pc.DB.Omit("Resumes").Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update user information: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, user)
}
