package repository

import "errors"

var (
	// ErrAttemptExists означает, что у пользователя уже есть попытка по этому экзамену.
	ErrAttemptExists = errors.New("attempt already exists for this exam and user")
	// ErrPaperExists означает, что индивидуальный билет попытки уже сгенерирован.
	ErrPaperExists = errors.New("paper already generated for this attempt")
)
