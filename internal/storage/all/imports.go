// Package all wires every built-in storage backend into the storage
// factory. It exists purely for side effects: a blank import of this
// package from the wiring layer (cmd/musicetl) runs the init functions of
// each backend, which register their factories with the storage package.
//
// Binaries that only need one backend can blank-import that backend's
// package directly instead.
package all

import (
	_ "musicetl/internal/storage/mysql"
	_ "musicetl/internal/storage/postgres"
	_ "musicetl/internal/storage/sqlite"
)
