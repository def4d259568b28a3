package slackgw

import (
	"errors"
	"testing"

	"caisseflow/internal/common"
)

func TestMetadataRoundTrip(t *testing.T) {
	meta := Metadata{
		Kind:       MetaTransferApproval,
		TransferID: "TRANS/2025/03/0007",
		ChannelID:  "C123",
		MessageTS:  "1700000000.000100",
	}

	encoded, err := meta.Encode()
	if err != nil {
		t.Fatal(err)
	}

	decoded, err := DecodeMetadata(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if decoded != meta {
		t.Errorf("round trip mismatch: %+v != %+v", decoded, meta)
	}
}

func TestDecodeMetadataRejectsMissingKind(t *testing.T) {
	if _, err := DecodeMetadata(`{"transferId":"TRANS/2025/03/0007"}`); !errors.Is(err, common.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat for missing kind, got %v", err)
	}
}

func TestDecodeMetadataRejectsGarbage(t *testing.T) {
	if _, err := DecodeMetadata("not json"); !errors.Is(err, common.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}
