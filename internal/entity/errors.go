package entity

import "errors"

var (
	ErrNotFound       = errors.New("registro não encontrado")
	ErrPlanNotFound   = errors.New("plano não encontrado")
	ErrOrderNotFound  = errors.New("pedido não encontrado")
	ErrCouponNotFound = errors.New("cupom não encontrado")

	// ErrStaleStatus is returned by compare-and-set writes when the stored
	// status changed since it was read.
	ErrStaleStatus = errors.New("status changed concurrently")
	ErrDuplicate   = errors.New("duplicate record")
)
