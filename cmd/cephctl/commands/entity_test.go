package commands

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/cephmsgr/internal/wireaddr"
)

func TestParseEntityName(t *testing.T) {
	e, err := parseEntityName("client.admin")
	require.NoError(t, err)
	require.Equal(t, wireaddr.EntityName{Type: wireaddr.EntityTypeClient, Name: "admin"}, e)

	e, err = parseEntityName("mon.")
	require.NoError(t, err)
	require.Equal(t, wireaddr.EntityName{Type: wireaddr.EntityTypeMon, Name: ""}, e)
}

func TestParseEntityName_Rejects(t *testing.T) {
	_, err := parseEntityName("nodot")
	require.Error(t, err)

	_, err = parseEntityName("bogus.name")
	require.Error(t, err)
}
