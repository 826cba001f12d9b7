package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния ресурса.
	ErrConflict = errors.New("resource state conflict")
)

// Ошибки ядра экзаменационной системы
var (
	// ErrInvalidTransition — запрошенный переход нарушает машину состояний попытки.
	// Сообщается вызывающему, мутации не происходит.
	ErrInvalidTransition = errors.New("invalid attempt state transition")

	// ErrEligibilityDenied — пользователь не назначен на экзамен
	// или экзамен вне активного окна.
	ErrEligibilityDenied = errors.New("user is not eligible for this exam")

	// ErrInsufficientQuestions — источник вопросов не может покрыть
	// запрошенное правилами количество.
	ErrInsufficientQuestions = errors.New("not enough questions to compose paper")

	// ErrInvalidExamConfig — режим генерации билета и параметры источника
	// противоречат друг другу.
	ErrInvalidExamConfig = errors.New("exam paper configuration is inconsistent")

	// ErrMalformedAnswer — присланный ответ не парсится по ожидаемой
	// для типа вопроса форме. Ответ сохраняется с флагом, пайплайн не падает.
	ErrMalformedAnswer = errors.New("answer payload is malformed for question type")

	// ErrConcurrentModification — гонка lost-update на попытке.
	// Если итоговое состояние гонкой не меняется, переход трактуется как no-op.
	ErrConcurrentModification = errors.New("attempt was modified concurrently")

	// ErrUnknownQuestionType — тип вопроса не входит в закрытый набор вариантов.
	ErrUnknownQuestionType = errors.New("unknown question type")

	// ErrQuestionInUse — вопрос, на который ссылаются билеты или ответы,
	// удалять запрещено: осиротеет уже отграженная история.
	ErrQuestionInUse = errors.New("question is referenced by papers or answers")

	// ErrAttemptIncomplete — у попытки остались вопросы без балла,
	// финализация отклоняется целиком, без частичной суммы.
	ErrAttemptIncomplete = errors.New("attempt has unscored answers")
)
