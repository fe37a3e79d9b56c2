package cephx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/cryptoutil"
	"github.com/marmos91/cephmsgr/internal/wireaddr"
)

func TestTicketBlob_RoundTrip(t *testing.T) {
	want := TicketBlob{SecretID: 42, Blob: []byte("sealed-ticket-bytes")}

	w := codec.NewWriter()
	want.Encode(w)

	got, err := DecodeTicketBlob(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestServiceTicket_RoundTrip(t *testing.T) {
	want := ServiceTicket{
		SessionKey: keyringSecret,
		Validity:   cryptoutil.Timestamp{TvSec: 1700000000, TvNsec: 123},
	}

	w := codec.NewWriter()
	want.Encode(w)

	got, err := DecodeServiceTicket(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestAuthCaps_RoundTrip(t *testing.T) {
	want := AuthCaps{AllowAll: true, Caps: []byte(`mon "allow *"`)}

	w := codec.NewWriter()
	want.Encode(w)

	got, err := DecodeAuthCaps(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestAuthTicket_RoundTrip(t *testing.T) {
	want := AuthTicket{
		Name:     wireaddr.EntityName{Type: wireaddr.EntityTypeClient, Name: "admin"},
		GlobalID: 4114,
		Created:  cryptoutil.Timestamp{TvSec: 1700000000},
		Expires:  cryptoutil.Timestamp{TvSec: 1700086400},
		Caps:     AuthCaps{AllowAll: true},
		Flags:    0,
	}

	w := codec.NewWriter()
	want.Encode(w)

	got, err := DecodeAuthTicket(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestAuthTicket_RejectsWrongVersion(t *testing.T) {
	w := codec.NewWriter()
	w.WriteUint8(9)
	_, err := DecodeAuthTicket(codec.NewReader(w.Bytes()))
	require.Error(t, err)
}

func TestMaybeEncryptedTicketBlob_RoundTrip_Plain(t *testing.T) {
	want := MaybeEncryptedTicketBlob{
		Plain: TicketBlob{SecretID: 7, Blob: []byte("refresh-me")},
	}

	w := codec.NewWriter()
	want.Encode(w)

	got, err := DecodeMaybeEncryptedTicketBlob(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.False(t, got.Encrypted)
	require.Equal(t, want.Plain, got.Plain)
}

func TestMaybeEncryptedTicketBlob_RoundTrip_Encrypted(t *testing.T) {
	want := MaybeEncryptedTicketBlob{Encrypted: true, Raw: []byte("already-sealed")}

	w := codec.NewWriter()
	want.Encode(w)

	got, err := DecodeMaybeEncryptedTicketBlob(codec.NewReader(w.Bytes()))
	require.NoError(t, err)
	require.True(t, got.Encrypted)
	require.Equal(t, want.Raw, got.Raw)
}
