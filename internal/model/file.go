package model

// File stores an uploaded PDF (resume or job description). Content holds the
// bytes when running without cloud storage; StorageObjectName points into the
// bucket otherwise.
type File struct {
	ID                int `gorm:"primaryKey" json:"id"`
	Content           []byte
	StorageObjectName *string
	Extension         string
}
