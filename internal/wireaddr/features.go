package wireaddr

import (
	"strings"

	"github.com/marmos91/cephmsgr/internal/codec"
)

// CephFeatureSet is a bitmask of capabilities an entity advertises.
// It carries both the raw bits an entity has set (Bits) and a Mask
// identifying which of those bits this package actually knows the
// meaning of, so a Contains check against a named feature never
// accidentally succeeds against bits this build doesn't recognize.
//
// Ported from the named feature-bit table in Ceph's feature registry;
// several bit positions were reused across incarnations as old features
// were retired, hence the incarnation offset folded into Mask.
type CephFeatureSet struct {
	Bits uint64
	Mask uint64
}

const (
	incarnation1 uint64 = 0
	incarnation2 uint64 = 1 << 57
	incarnation3 uint64 = 1<<57 | 1<<28
)

func feature(bit uint, incarnation uint64) CephFeatureSet {
	b := uint64(1) << bit
	return CephFeatureSet{Bits: b, Mask: b | incarnation}
}

// Empty is the feature set containing nothing.
var Empty = CephFeatureSet{}

// Named features, one constant per actively-used bit position in
// ceph_features.h. Retired bit positions are not given names here (the
// original marks them reserved too); a bit position shared by several
// features gets one name per feature.
var (
	FeatureUID                    = feature(0, incarnation1)
	FeatureNoSrcAddr               = feature(1, incarnation1)
	FeatureServerNautilus          = feature(2, incarnation3)
	FeatureFlock                   = feature(3, incarnation1)
	FeatureSubscribe2              = feature(4, incarnation1)
	FeatureMonNames                = feature(5, incarnation1)
	FeatureReconnectSeq             = feature(6, incarnation1)
	FeatureDirLayoutHash            = feature(7, incarnation1)
	FeatureObjectLocator            = feature(8, incarnation1)
	FeaturePGID64                   = feature(9, incarnation1)
	FeatureIncSubOSDMap             = feature(10, incarnation1)
	FeaturePGPool3                  = feature(11, incarnation1)
	FeatureOSDReplyMux              = feature(12, incarnation1)
	FeatureOSDEnc                   = feature(13, incarnation1)
	FeatureServerKraken             = feature(14, incarnation2)
	FeatureMonEnc                   = feature(15, incarnation1)
	FeatureServerOctopus            = feature(16, incarnation3)
	FeatureOSDRepopMLCOD            = feature(16, incarnation3)
	FeatureOSPerfStatNS             = feature(17, incarnation3)
	FeatureCrushTunables            = feature(18, incarnation1)
	FeatureOSDPGLogHardLimit        = feature(19, incarnation2)
	FeatureServerPacific            = feature(20, incarnation3)
	FeatureServerLuminous           = feature(21, incarnation2)
	FeatureResendOnSplit            = feature(21, incarnation2)
	FeatureRadosBackoff             = feature(21, incarnation2)
	FeatureOSDMapPGUpmap            = feature(21, incarnation2)
	FeatureCrushChooseArgs          = feature(21, incarnation2)
	FeatureOSDFixedCollectionList   = feature(22, incarnation2)
	FeatureMsgAuth                  = feature(23, incarnation1)
	FeatureRecoveryReservation2     = feature(24, incarnation2)
	FeatureCrushTunables2           = feature(25, incarnation1)
	FeatureCreatePoolID             = feature(26, incarnation1)
	FeatureReplyCreateInode         = feature(27, incarnation1)
	FeatureServerMimic              = feature(28, incarnation2)
	FeatureMDSEnc                   = feature(29, incarnation1)
	FeatureOSDHashPSPool            = feature(30, incarnation1)
	FeatureServerReef               = feature(31, incarnation3)
	FeatureStretchMode              = feature(32, incarnation3)
	FeatureServerQuincy             = feature(33, incarnation3)
	FeatureRangeBlocklist           = feature(34, incarnation3)
	FeatureOSDCachePool             = feature(35, incarnation1)
	FeatureCrushV2                  = feature(36, incarnation1)
	FeatureExportPeer               = feature(37, incarnation1)
	FeatureCrushMSR                 = feature(38, incarnation2)
	FeatureOSDMapEnc                = feature(39, incarnation1)
	FeatureMDSInlineData            = feature(40, incarnation1)
	FeatureCrushTunables3           = feature(41, incarnation1)
	FeatureOSDPrimaryAffinity       = feature(41, incarnation1)
	FeatureMsgrKeepalive2           = feature(42, incarnation1)
	FeatureOSDPoolResend            = feature(43, incarnation1)
	FeatureNVMeOFHA                 = feature(44, incarnation2)
	FeatureNVMeOFHAMap              = feature(45, incarnation2)
	FeatureOSDFadviseFlags          = feature(46, incarnation1)
	FeatureMDSQuota                 = feature(47, incarnation1)
	FeatureCrushV4                  = feature(48, incarnation1)
	FeatureServerSquid              = feature(49, incarnation2)
	FeatureServerTentacle           = feature(50, incarnation2)
	FeatureNewOSDOpEncoding         = feature(56, incarnation1)
	FeatureMonStatefulSub           = feature(57, incarnation1)
	FeatureServerJewel              = feature(57, incarnation1)
	FeatureCrushTunables5           = feature(58, incarnation1)
	FeatureNewOSDOpReplyEncoding    = feature(58, incarnation1)
	FeatureFSFileLayoutV2           = feature(58, incarnation1)
	FeatureFSBtime                  = feature(59, incarnation1)
	FeatureFSChangeAttr             = feature(59, incarnation1)
	FeatureMsgAddr2                 = feature(59, incarnation1)
	FeatureOSDRecoveryDeletes       = feature(60, incarnation1)
	FeatureCephxV2                  = feature(61, incarnation1)
	FeatureReserved                 = feature(62, incarnation1)
)

// All is the union of every named feature above.
var All = func() CephFeatureSet {
	names := []CephFeatureSet{
		FeatureUID, FeatureNoSrcAddr, FeatureServerNautilus, FeatureFlock,
		FeatureSubscribe2, FeatureMonNames, FeatureReconnectSeq, FeatureDirLayoutHash,
		FeatureObjectLocator, FeaturePGID64, FeatureIncSubOSDMap, FeaturePGPool3,
		FeatureOSDReplyMux, FeatureOSDEnc, FeatureServerKraken, FeatureMonEnc,
		FeatureServerOctopus, FeatureOSDRepopMLCOD, FeatureOSPerfStatNS, FeatureCrushTunables,
		FeatureOSDPGLogHardLimit, FeatureServerPacific, FeatureServerLuminous, FeatureResendOnSplit,
		FeatureRadosBackoff, FeatureOSDMapPGUpmap, FeatureCrushChooseArgs, FeatureOSDFixedCollectionList,
		FeatureMsgAuth, FeatureRecoveryReservation2, FeatureCrushTunables2, FeatureCreatePoolID,
		FeatureReplyCreateInode, FeatureServerMimic, FeatureMDSEnc, FeatureOSDHashPSPool,
		FeatureServerReef, FeatureStretchMode, FeatureServerQuincy, FeatureRangeBlocklist,
		FeatureOSDCachePool, FeatureCrushV2, FeatureExportPeer, FeatureCrushMSR,
		FeatureOSDMapEnc, FeatureMDSInlineData, FeatureCrushTunables3, FeatureOSDPrimaryAffinity,
		FeatureMsgrKeepalive2, FeatureOSDPoolResend, FeatureNVMeOFHA, FeatureNVMeOFHAMap,
		FeatureOSDFadviseFlags, FeatureMDSQuota, FeatureCrushV4, FeatureServerSquid,
		FeatureServerTentacle, FeatureNewOSDOpEncoding, FeatureMonStatefulSub, FeatureServerJewel,
		FeatureCrushTunables5, FeatureNewOSDOpReplyEncoding, FeatureFSFileLayoutV2, FeatureFSBtime,
		FeatureFSChangeAttr, FeatureMsgAddr2, FeatureOSDRecoveryDeletes, FeatureCephxV2,
		FeatureReserved,
	}
	acc := Empty
	for _, n := range names {
		acc = acc.Union(n)
	}
	return acc
}()

var featureNames = map[CephFeatureSet]string{
	FeatureUID: "UID", FeatureNoSrcAddr: "NOSRCADDR", FeatureServerNautilus: "SERVER_NAUTILUS",
	FeatureFlock: "FLOCK", FeatureSubscribe2: "SUBSCRIBE2", FeatureMonNames: "MONNAMES",
	FeatureReconnectSeq: "RECONNECT_SEQ", FeatureMsgAuth: "MSG_AUTH", FeatureMsgrKeepalive2: "MSGR_KEEPALIVE2",
	FeatureServerLuminous: "SERVER_LUMINOUS", FeatureServerMimic: "SERVER_MIMIC",
}

// TryFromBits builds a CephFeatureSet from a raw u64, matching the
// original's TryFrom<u64> (bits and mask are set identically: an
// externally observed bitmask doesn't know, by itself, which of its
// bits correspond to known features).
func TryFromBits(v uint64) CephFeatureSet {
	return CephFeatureSet{Bits: v, Mask: v}
}

// Union returns the set containing features of both operands.
func (f CephFeatureSet) Union(rhs CephFeatureSet) CephFeatureSet {
	return CephFeatureSet{Bits: f.Bits | rhs.Bits, Mask: f.Mask | rhs.Mask}
}

// Intersection returns the set containing only features present in both.
func (f CephFeatureSet) Intersection(rhs CephFeatureSet) CephFeatureSet {
	return CephFeatureSet{Bits: f.Bits & rhs.Bits, Mask: f.Mask & rhs.Mask}
}

// Contains reports whether f supports every bit that features requires.
func (f CephFeatureSet) Contains(features CephFeatureSet) bool {
	return f.Bits&features.Mask == features.Mask
}

// String renders the set as a " | "-joined list of recognized feature
// names, mirroring the original's Display impl.
func (f CephFeatureSet) String() string {
	var names []string
	for feat, name := range featureNames {
		if feat != Empty && f.Contains(feat) {
			names = append(names, name)
		}
	}
	return strings.Join(names, " | ")
}

// Encode writes the raw feature bits as a little-endian u64.
func (f CephFeatureSet) Encode(w *codec.Writer) {
	w.WriteUint64(f.Bits)
}

// Decode reads a little-endian u64 and wraps it via TryFromBits.
func DecodeFeatureSet(r *codec.Reader) (CephFeatureSet, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return CephFeatureSet{}, err
	}
	return TryFromBits(v), nil
}
