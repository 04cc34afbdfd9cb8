package selectsingle

import "errors"

var (
	// ErrAlreadyMounted is returned by Mount on a mounted controller.
	ErrAlreadyMounted = errors.New("selectsingle: already mounted")
	// ErrUnmounted is returned by Mount once the controller has been torn down.
	ErrUnmounted = errors.New("selectsingle: controller unmounted")
	// ErrMissingService is returned by Mount when no service was supplied.
	ErrMissingService = errors.New("selectsingle: service is required")
	// ErrMissingTransform is returned by Mount when no transform was supplied.
	ErrMissingTransform = errors.New("selectsingle: transform is required")
)
