package models

type User struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"type:varchar(250);not null" json:"name"`
	Email string `gorm:"type:varchar(254);not null;uniqueIndex" json:"email"`
}

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
}
