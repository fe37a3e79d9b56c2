package monmap

import (
	"fmt"

	"github.com/marmos91/cephmsgr/internal/codec"
	"github.com/marmos91/cephmsgr/internal/cryptoutil"
)

// minSupportedVersion/minSupportedCompat is the lowest MonMap wire
// version that passes the version check. Earlier versions omit ranks,
// which this decoder always reads. A version-6 map passes the check but
// is then rejected, because it carries no min_mon_release and this
// decoder does not infer one from the feature bits.
const (
	minSupportedVersion = 6
	maxSupportedVersion = 9
	minSupportedCompat  = 6
)

// MonMap is the cluster's monitor map: who the monitors are, how to
// reach them, and the feature bits the cluster has agreed on.
type MonMap struct {
	Epoch                 uint32
	Fsid                  Uuid
	LastChanged           cryptoutil.Timestamp
	Created               cryptoutil.Timestamp
	MonInfo               map[string]MonInfo
	Ranks                 []string
	RemovedRanks          []uint32
	PersistentFeatures    MonFeatures
	OptionalFeatures      MonFeatures
	MinMonRelease         [1]byte
	Strategy              [1]byte
	DisallowedLeaders     map[string]struct{}
	StretchModeEnabled    bool
	TiebreakerMon         string
	StretchMarkedDownMons map[string]struct{}
}

// DecodeMonMap parses a MonMap from the first data segment of a msgr2
// "mon_map" message. The wire format is version-gated: fields present
// only from a given version onward are decoded conditionally, but this
// client only ever accepts version >= 6, so every conditional the
// original handles for version < 6 is dead code here and omitted.
// Version 6 itself fails with an error at min_mon_release; only
// versions 7 through 9 decode successfully.
func DecodeMonMap(data []byte) (MonMap, error) {
	r := codec.NewReader(data)

	version, err := r.ReadUint8()
	if err != nil {
		return MonMap{}, err.(*codec.DecodeError).ForField("version")
	}
	compat, err := r.ReadUint8()
	if err != nil {
		return MonMap{}, err.(*codec.DecodeError).ForField("compat")
	}
	if compat < minSupportedCompat {
		return MonMap{}, codec.UnexpectedVersion("MonMap.compat", compat, minSupportedCompat, 255)
	}
	if version < minSupportedVersion || version > maxSupportedVersion {
		return MonMap{}, codec.UnexpectedVersion("MonMap", version, minSupportedVersion, maxSupportedVersion)
	}

	n, err := r.ReadUint32()
	if err != nil {
		return MonMap{}, err.(*codec.DecodeError).ForField("struct_len")
	}
	raw, err := r.ReadRaw(int(n))
	if err != nil {
		return MonMap{}, err.(*codec.DecodeError).ForField("struct_body")
	}
	body := codec.NewReader(raw)

	fsid, err := DecodeUuid(body)
	if err != nil {
		return MonMap{}, err
	}
	epoch, err := body.ReadUint32()
	if err != nil {
		return MonMap{}, err.(*codec.DecodeError).ForField("epoch")
	}
	lastChanged, err := cryptoutil.DecodeTimestamp(body)
	if err != nil {
		return MonMap{}, err
	}
	created, err := cryptoutil.DecodeTimestamp(body)
	if err != nil {
		return MonMap{}, err
	}

	// Present from version >= 4; this decoder's floor is 6, so always
	// read.
	persistentFeatures, err := DecodeMonFeatures(body)
	if err != nil {
		return MonMap{}, err
	}
	optionalFeatures, err := DecodeMonFeatures(body)
	if err != nil {
		return MonMap{}, err
	}

	// Present from version >= 5; always read at this floor.
	monInfo, err := codec.ReadMap(body, (*codec.Reader).ReadWireString, DecodeMonInfo)
	if err != nil {
		return MonMap{}, err
	}

	// Present from version >= 6; always read at this floor.
	ranks, err := codec.ReadSlice(body, (*codec.Reader).ReadWireString)
	if err != nil {
		return MonMap{}, err
	}

	var minMonRelease [1]byte
	if version >= 7 {
		b, err := body.ReadFixed(1)
		if err != nil {
			return MonMap{}, err.(*codec.DecodeError).ForField("min_mon_release")
		}
		minMonRelease[0] = b[0]
	} else {
		return MonMap{}, fmt.Errorf("monmap: cannot infer min_mon_release from features for pre-7 monmap")
	}

	var removedRanks []uint32
	var strategy [1]byte
	var disallowedLeaders map[string]struct{}
	if version >= 8 {
		removedRanks, err = codec.ReadSlice(body, (*codec.Reader).ReadUint32)
		if err != nil {
			return MonMap{}, err
		}
		b, err := body.ReadFixed(1)
		if err != nil {
			return MonMap{}, err.(*codec.DecodeError).ForField("strategy")
		}
		strategy[0] = b[0]
		disallowedLeaders, err = codec.ReadSet(body, (*codec.Reader).ReadWireString)
		if err != nil {
			return MonMap{}, err
		}
	} else {
		disallowedLeaders = map[string]struct{}{}
	}

	var stretchModeEnabled bool
	var tiebreakerMon string
	var stretchMarkedDownMons map[string]struct{}
	if version >= 9 {
		stretchModeEnabled, err = body.ReadBool()
		if err != nil {
			return MonMap{}, err.(*codec.DecodeError).ForField("stretch_mode_enabled")
		}
		tiebreakerMon, err = body.ReadWireString()
		if err != nil {
			return MonMap{}, err.(*codec.DecodeError).ForField("tiebreaker_mon")
		}
		stretchMarkedDownMons, err = codec.ReadSet(body, (*codec.Reader).ReadWireString)
		if err != nil {
			return MonMap{}, err
		}
	} else {
		stretchMarkedDownMons = map[string]struct{}{}
	}

	return MonMap{
		Epoch:                 epoch,
		Fsid:                  fsid,
		LastChanged:           lastChanged,
		Created:               created,
		MonInfo:               monInfo,
		Ranks:                 ranks,
		RemovedRanks:          removedRanks,
		PersistentFeatures:    persistentFeatures,
		OptionalFeatures:      optionalFeatures,
		MinMonRelease:         minMonRelease,
		Strategy:              strategy,
		DisallowedLeaders:     disallowedLeaders,
		StretchModeEnabled:    stretchModeEnabled,
		TiebreakerMon:         tiebreakerMon,
		StretchMarkedDownMons: stretchMarkedDownMons,
	}, nil
}
