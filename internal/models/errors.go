package models

import "errors"

var (
	ErrContentTooLong  = errors.New("сообщение слишком длинное")
	ErrEmptyMessage    = errors.New("сообщение должно содержать текст или изображение")
	ErrImageTooLarge   = errors.New("изображение слишком большое")
	ErrNotAnImage      = errors.New("файл не является изображением")
	ErrInvalidStatus   = errors.New("недопустимый статус сообщения")
	ErrMessageNotFound = errors.New("сообщение не найдено")
	ErrSettingNotFound = errors.New("настройка не найдена")
	ErrSettingUpdate   = errors.New("не удалось изменить настройки")
	ErrInvalidPassword = errors.New("неверный пароль")
	ErrInvalidToken    = errors.New("недействительный токен")
)
