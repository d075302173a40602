package domain

import "errors"

var (
	// ErrQuizNotFound indicates the named quiz does not exist in the source.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizUnreadable indicates the quiz source could not be read.
	ErrQuizUnreadable = errors.New("quiz source unreadable")
	// ErrNameTaken is returned when a joining player's nickname is already in use.
	ErrNameTaken = errors.New("nickname already taken")
	// ErrNameInvalid is returned for empty or over-long nicknames.
	ErrNameInvalid = errors.New("nickname invalid")
)
