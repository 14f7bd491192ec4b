package config

import "errors"

var ErrBadConfiguration = errors.New("bad configuration")
