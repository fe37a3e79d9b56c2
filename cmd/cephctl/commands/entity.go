package commands

import (
	"fmt"
	"strings"

	"github.com/marmos91/cephmsgr/internal/wireaddr"
	"github.com/marmos91/cephmsgr/pkg/config"
)

// entityFromConfig splits cfg.Keyring.Entity ("client.admin", "mon.")
// into the EntityName Dial announces itself as.
func entityFromConfig(cfg *config.Config) (wireaddr.EntityName, error) {
	return parseEntityName(cfg.Keyring.Entity)
}

func parseEntityName(s string) (wireaddr.EntityName, error) {
	typeName, instance, ok := strings.Cut(s, ".")
	if !ok {
		return wireaddr.EntityName{}, fmt.Errorf("entity %q: want \"type.name\" form", s)
	}
	ty, err := entityTypeFromString(typeName)
	if err != nil {
		return wireaddr.EntityName{}, fmt.Errorf("entity %q: %w", s, err)
	}
	return wireaddr.EntityName{Type: ty, Name: instance}, nil
}

func entityTypeFromString(s string) (wireaddr.EntityType, error) {
	switch s {
	case "mon":
		return wireaddr.EntityTypeMon, nil
	case "mds":
		return wireaddr.EntityTypeMds, nil
	case "osd":
		return wireaddr.EntityTypeOsd, nil
	case "client":
		return wireaddr.EntityTypeClient, nil
	case "mgr":
		return wireaddr.EntityTypeMgr, nil
	default:
		return 0, fmt.Errorf("unknown entity type %q", s)
	}
}
