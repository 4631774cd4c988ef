package hybrid

import (
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pgtgrly/bombe-mcp/internal/config"
	"github.com/pgtgrly/bombe-mcp/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "bombe.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func seedOneSymbol(t *testing.T, s *store.Store) {
	t.Helper()
	batch := store.NewBatch("a.py")
	batch.AddSymbol(store.Symbol{Name: "f", QualifiedName: "a.f", Kind: store.KindFunction, StartLine: 1, EndLine: 2})
	_, err := s.ReplaceFileGraph(store.File{Path: "a.py", Language: store.LangPython, ContentHash: "h", LastIndexed: time.Now()}, batch)
	require.NoError(t, err)
}

func TestBuildArtifactRoundTrips(t *testing.T) {
	s := newTestStore(t)
	seedOneSymbol(t, s)

	a, err := BuildArtifact(s, "/repo", "snap-1")
	require.NoError(t, err)
	require.Len(t, a.Symbols, 1)
	require.Equal(t, "a.f", a.Symbols[0].QualifiedName)
	require.NotEmpty(t, a.Checksum)

	dir := t.TempDir()
	path, err := WriteArtifact(dir, a)
	require.NoError(t, err)

	loaded, err := ReadArtifact(path)
	require.NoError(t, err)
	require.Equal(t, a.Checksum, loaded.Checksum)
	require.NoError(t, VerifyArtifact(s, loaded))
}

func TestVerifyArtifactDetectsChecksumTamper(t *testing.T) {
	s := newTestStore(t)
	seedOneSymbol(t, s)

	a, err := BuildArtifact(s, "/repo", "snap-1")
	require.NoError(t, err)
	a.Symbols[0].QualifiedName = "tampered"

	err = VerifyArtifact(s, a)
	require.Error(t, err)
	var herr *Error
	require.ErrorAs(t, err, &herr)
	require.Equal(t, ErrArtifactCorrupt, herr.Code)

	quarantined, err := s.IsQuarantined(a.ArtifactID)
	require.NoError(t, err)
	require.True(t, quarantined)
}

func TestVerifyArtifactRejectsNewerSchema(t *testing.T) {
	s := newTestStore(t)
	a := Artifact{SchemaVersion: SchemaVersion + 1, ArtifactID: NewArtifactID()}

	err := VerifyArtifact(s, a)
	require.Error(t, err)
	var herr *Error
	require.ErrorAs(t, err, &herr)
	require.Equal(t, ErrArtifactIncompatible, herr.Code)

	quarantined, err := s.IsQuarantined(a.ArtifactID)
	require.NoError(t, err)
	require.False(t, quarantined, "incompatible artifacts are skipped, not quarantined")
}

func TestSignAndVerifyArtifactHMAC(t *testing.T) {
	s := newTestStore(t)
	seedOneSymbol(t, s)

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	keyHex := hex.EncodeToString(key)
	require.NoError(t, s.TrustSigningKey("k1", string(config.SigningHMACSHA256), keyHex))

	a, err := BuildArtifact(s, "/repo", "snap-1")
	require.NoError(t, err)
	cfg := config.Signing{Algorithm: config.SigningHMACSHA256, KeyID: "k1", KeyMaterial: keyHex}
	require.NoError(t, SignArtifact(&a, cfg))
	require.NotEmpty(t, a.Signature)

	require.NoError(t, VerifyArtifact(s, a))

	a.Signature = "00"
	err = VerifyArtifact(s, a)
	require.Error(t, err)
	var herr *Error
	require.ErrorAs(t, err, &herr)
	require.Equal(t, ErrSignatureMismatch, herr.Code)
}

func TestApplyArtifactSkipsQuarantined(t *testing.T) {
	s := newTestStore(t)
	a, err := BuildArtifact(s, "/repo", "snap-1")
	require.NoError(t, err)
	require.NoError(t, s.QuarantineArtifact(a.ArtifactID, "test"))

	err = ApplyArtifact(s, a)
	require.Error(t, err)
	var herr *Error
	require.ErrorAs(t, err, &herr)
	require.Equal(t, ErrArtifactCorrupt, herr.Code)
}

func TestBuildDeltaChecksumStable(t *testing.T) {
	d1, err := BuildDelta("/repo", "s1", "s2", []string{"a.py"}, nil, nil, nil, nil)
	require.NoError(t, err)
	recomputed, err := checksumDelta(d1)
	require.NoError(t, err)
	require.Equal(t, d1.Checksum, recomputed, "recomputing over the same payload must be stable")
}

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < failureThreshold; i++ {
		require.NoError(t, RecordRemoteFailure(s, "origin"))
	}
	ok, err := ShouldAttemptRemote(s, "origin")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, RecordRemoteSuccess(s, "origin"))
	ok, err = ShouldAttemptRemote(s, "origin")
	require.NoError(t, err)
	require.True(t, ok)
}
