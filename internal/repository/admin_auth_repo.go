package repository

import (
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"studiobook/internal/db"
)

type AdminAuthRepository interface {
	GetByEmail(email string) (*db.Admin, error)
	CreateAdmin(email, password string) error
}

type adminAuthRepository struct {
	db *sql.DB
}

func NewAdminAuthRepository(conn *sql.DB) AdminAuthRepository {
	return &adminAuthRepository{db: conn}
}

func (r *adminAuthRepository) GetByEmail(email string) (*db.Admin, error) {
	var admin db.Admin
	err := r.db.QueryRow(`SELECT id, email, password_hash FROM admins WHERE email = $1`, email).
		Scan(&admin.ID, &admin.Email, &admin.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

func (r *adminAuthRepository) CreateAdmin(email, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`INSERT INTO admins (email, password_hash) VALUES ($1, $2)`, email, hashedPassword)
	return err
}
