package store

import (
	"database/sql/driver"
	"net"

	"github.com/go-faster/errors"
	"github.com/go-sql-driver/mysql"
)

// ErrConnectivity marks failures to reach the store at all.
var ErrConnectivity = errors.New("store unreachable")

type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return "store unreachable: " + e.Err.Error()
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

func (e *ConnectivityError) Is(target error) bool { return target == ErrConnectivity }

// IsConnectivity reports whether err means the store cannot be reached.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConnectivity) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
