package board

import "errors"

var (
	// ErrNotFound 보드가 외부 저장소에 없음
	ErrNotFound = errors.New("whiteboard not found")
	// ErrUnauthorized 참가자가 아니거나 방에 붙지 않은 연결
	ErrUnauthorized = errors.New("not authorized for this whiteboard")
	// ErrMalformedOperation 필수 필드가 빠진 작업
	ErrMalformedOperation = errors.New("malformed operation")
)
