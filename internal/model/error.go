package model

import "errors"

var (
	ErrValidation    = errors.New("validation error") // 400
	ErrBadGateway    = errors.New("bad gateway")      // 502
	ErrBillNotFound  = errors.New("bill not found")
	ErrBillConflict  = errors.New("bill conflict")
	ErrUnknownStatus = errors.New("unknown status")
)
