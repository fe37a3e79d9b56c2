package ceph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/cephmsgr/internal/wireaddr"
)

const sampleKeyring = `
[client.admin]
	key = AQEBAQEBAQEBAQEBAQEBAQ==
	caps mon = "allow *"
	caps osd = "allow *"

[mon.]
	key = q6urq6urq6urq6urq6urqw==
	caps mon = "allow *"
`

func TestParseKeyring_FindsRequestedEntitysKey(t *testing.T) {
	admin := wireaddr.EntityName{Type: wireaddr.EntityTypeClient, Name: "admin"}
	key, err := ParseKeyring([]byte(sampleKeyring), admin)
	require.NoError(t, err)
	require.Equal(t, uint16(1), key.Type)
	require.Len(t, key.Secret, 16)

	mon := wireaddr.EntityName{Type: wireaddr.EntityTypeMon, Name: ""}
	monKey, err := ParseKeyring([]byte(sampleKeyring), mon)
	require.NoError(t, err)
	require.NotEqual(t, key.Secret, monKey.Secret)
}

func TestParseKeyring_MissingEntity(t *testing.T) {
	missing := wireaddr.EntityName{Type: wireaddr.EntityTypeClient, Name: "nobody"}
	_, err := ParseKeyring([]byte(sampleKeyring), missing)
	require.Error(t, err)
}

func TestParseKeyring_RejectsWrongSecretLength(t *testing.T) {
	const short = `[client.admin]
	key = QUJD
`
	admin := wireaddr.EntityName{Type: wireaddr.EntityTypeClient, Name: "admin"}
	_, err := ParseKeyring([]byte(short), admin)
	require.Error(t, err)
}
