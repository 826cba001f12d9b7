package entity

import "time"

// User — минимальная проекция пользователя. Аутентификация и пароли живут
// во внешнем сервисе идентичности, ядру нужны только id, имя и признак
// администратора для отчетов и прав на ручное оценивание.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	FullName  string    `gorm:"size:255" json:"full_name,omitempty"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// Group — группа пользователей, на которую можно назначить экзамен
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Group) TableName() string {
	return "groups"
}

// UserGroup — явная сущность-связка many-to-many пользователей и групп.
// Членство разрешается запросами по множеству, без полиморфизма.
type UserGroup struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	UserID  uint `gorm:"not null;index;uniqueIndex:uk_user_group,priority:1" json:"user_id"`
	GroupID uint `gorm:"not null;index;uniqueIndex:uk_user_group,priority:2" json:"group_id"`
}

// TableName определяет имя таблицы для GORM
func (UserGroup) TableName() string {
	return "user_groups"
}
