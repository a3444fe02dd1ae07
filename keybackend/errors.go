package keybackend

import (
	"fmt"

	"github.com/sagarc03/mediagate"
)

// ErrTokenUnknown is returned when a bearer token matches no keyring entry.
var ErrTokenUnknown = fmt.Errorf("upload token not recognised: %w", mediagate.ErrUnauthorized)
