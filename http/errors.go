package http

import (
	"fmt"

	"github.com/sagarc03/mediagate"
)

// errUploadsDisabled is returned when no upload secret is configured.
var errUploadsDisabled = fmt.Errorf("uploads disabled: no secret configured: %w", mediagate.ErrUnauthorized)
