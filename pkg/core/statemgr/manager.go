package statemgr

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/statetrie/pkg/config"
	"github.com/nspcc-dev/statetrie/pkg/core/radix"
	"github.com/nspcc-dev/statetrie/pkg/core/state"
	"github.com/nspcc-dev/statetrie/pkg/core/storage"
	"github.com/nspcc-dev/statetrie/pkg/io"
	"github.com/nspcc-dev/statetrie/pkg/util"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// BaseVersion is the name of the version every manager starts with.
const BaseVersion = "base"

// VersionDelimiter separates the prefix of a transient version from its
// unique part.
const VersionDelimiter = ":"

var (
	// ErrNoVersion is returned for operations on unknown versions.
	ErrNoVersion = errors.New("no such version")
	// ErrVersionExists is returned on attempt to create a version with the
	// name already taken.
	ErrVersionExists = errors.New("version already exists")
	// ErrFinalVersion is returned on attempt to delete the final version.
	ErrFinalVersion = errors.New("final version can't be deleted")
	// ErrEmptyVersion is returned for empty version names.
	ErrEmptyVersion = errors.New("empty version name")
)

// Stats contains proof cache statistics.
type Stats struct {
	CacheHits   uint64
	CacheMisses uint64
}

// Manager keeps named versions of the world state. Versions are cheap
// copy-on-write clones of each other. Writes to a single version must be
// serialized by the caller.
type Manager struct {
	lock     sync.RWMutex
	versions map[string]*radix.Tree
	final    string

	cfg   radix.Config
	codec state.LeafCodec
	// maxSiblings caps listings, 0 means no cap.
	maxSiblings int
	store storage.Store
	log   *zap.Logger

	// proofs caches proofs of the final version, nil if disabled.
	proofs *lru.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a manager with an empty base version. If store contains a
// persisted final version, it's loaded and made final. Store can be nil in
// which case Persist and Load are not available.
func New(cfg config.TrieConfiguration, store storage.Store, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rc, err := cfg.RadixConfig()
	if err != nil {
		return nil, err
	}
	m := &Manager{
		versions:    make(map[string]*radix.Tree),
		final:       BaseVersion,
		cfg:         rc,
		codec:       state.LeafCodec{Config: rc},
		maxSiblings: cfg.MaxSiblings,
		store:       store,
		log:         log,
	}
	if cfg.ProofCacheSize > 0 {
		m.proofs, err = lru.New(cfg.ProofCacheSize)
		if err != nil {
			return nil, fmt.Errorf("can't create proof cache: %w", err)
		}
	}
	m.versions[BaseVersion] = radix.NewTree(BaseVersion, nil, rc, log)

	if store != nil {
		final, err := store.Get(storage.SYSFinalVersion.Bytes())
		switch {
		case errors.Is(err, storage.ErrKeyNotFound):
		case err != nil:
			return nil, fmt.Errorf("can't read final version: %w", err)
		default:
			v := string(final)
			t, err := m.loadTree(v)
			if err != nil {
				return nil, fmt.Errorf("can't load final version %s: %w", v, err)
			}
			m.versions[v] = t
			m.final = v
			log.Info("restored final version",
				zap.String("version", v),
				zap.Int("values", m.versions[v].NumChildStateNodes()))
		}
	}
	m.updateMetrics()
	return m, nil
}

// Config returns radix configuration used for all versions.
func (m *Manager) Config() radix.Config {
	return m.cfg
}

func (m *Manager) updateMetrics() {
	updateLiveVersionsMetric(len(m.versions))
	if t, ok := m.versions[m.final]; ok {
		updateFinalTreeSizeMetric(t.NumChildStateNodes())
	}
}

func (m *Manager) tree(version string) (*radix.Tree, error) {
	t, ok := m.versions[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoVersion, version)
	}
	return t, nil
}

// Tree returns the tree of the given version or nil if there is none.
func (m *Manager) Tree(version string) *radix.Tree {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.versions[version]
}

// Versions returns sorted names of all versions.
func (m *Manager) Versions() []string {
	m.lock.RLock()
	res := make([]string, 0, len(m.versions))
	for v := range m.versions {
		res = append(res, v)
	}
	m.lock.RUnlock()
	sort.Strings(res)
	return res
}

// FinalVersion returns the name of the final version.
func (m *Manager) FinalVersion() string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.final
}

// CloneVersion creates version to as a copy of version from.
func (m *Manager) CloneVersion(from, to string) error {
	if to == "" {
		return ErrEmptyVersion
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.cloneVersion(from, to)
}

func (m *Manager) cloneVersion(from, to string) error {
	t, err := m.tree(from)
	if err != nil {
		return err
	}
	if _, ok := m.versions[to]; ok {
		return fmt.Errorf("%w: %s", ErrVersionExists, to)
	}
	m.versions[to] = t.Clone(to, nil)
	m.log.Debug("version cloned", zap.String("from", from), zap.String("to", to))
	m.updateMetrics()
	return nil
}

// NewTransientVersion clones the final version into a new uniquely named
// one and returns its name.
func (m *Manager) NewTransientVersion(prefix string) (string, error) {
	v := prefix + VersionDelimiter + uuid.NewString()
	m.lock.Lock()
	defer m.lock.Unlock()
	if err := m.cloneVersion(m.final, v); err != nil {
		return "", err
	}
	return v, nil
}

// DeleteVersion drops the given version releasing all nodes not shared with
// other versions. It returns the number of released nodes.
func (m *Manager) DeleteVersion(version string) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if version == m.final {
		return 0, fmt.Errorf("%w: %s", ErrFinalVersion, version)
	}
	return m.deleteVersion(version)
}

func (m *Manager) deleteVersion(version string) (int, error) {
	t, err := m.tree(version)
	if err != nil {
		return 0, err
	}
	delete(m.versions, version)
	n := t.DeleteRadixTreeVersion()
	addReleasedNodesMetric(n)
	m.log.Debug("version deleted", zap.String("version", version), zap.Int("released", n))
	m.updateMetrics()
	return n, nil
}

// FinalizeVersion makes version final. The previous final version is
// deleted unless it's the base one.
func (m *Manager) FinalizeVersion(version string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, err := m.tree(version); err != nil {
		return err
	}
	if version == m.final {
		return nil
	}
	prev := m.final
	m.final = version
	m.purgeProofs()
	if prev != BaseVersion {
		if _, err := m.deleteVersion(prev); err != nil {
			return err
		}
	}
	m.updateMetrics()
	m.log.Info("version finalized", zap.String("version", version), zap.String("previous", prev))
	return nil
}

func (m *Manager) purgeProofs() {
	if m.proofs != nil {
		m.proofs.Purge()
	}
}

// Set stores value under label in the given version updating radix info
// on the way to the root.
func (m *Manager) Set(version, label string, value []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	t, err := m.tree(version)
	if err != nil {
		return err
	}
	if err := t.Set(label, state.NewLeaf(label, version, value, m.cfg)); err != nil {
		return fmt.Errorf("can't set %s: %w", label, err)
	}
	addInfoUpdatesMetric(t.UpdateRadixInfoForAllRootPaths(label))
	m.afterWrite(version)
	return nil
}

// Delete removes label from the given version.
func (m *Manager) Delete(version, label string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	t, err := m.tree(version)
	if err != nil {
		return err
	}
	if err := t.Delete(label, true); err != nil {
		return fmt.Errorf("can't delete %s: %w", label, err)
	}
	m.afterWrite(version)
	return nil
}

func (m *Manager) afterWrite(version string) {
	if version == m.final {
		m.purgeProofs()
		updateFinalTreeSizeMetric(m.versions[version].NumChildStateNodes())
	}
}

// Get returns the value stored under label in the given version.
func (m *Manager) Get(version, label string) ([]byte, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	t, err := m.tree(version)
	if err != nil {
		return nil, err
	}
	v, ok := t.Get(label).(*state.Leaf)
	if !ok {
		return nil, fmt.Errorf("%w: %s", radix.ErrNotFound, label)
	}
	return v.Value(), nil
}

// Has checks whether label is present in the given version.
func (m *Manager) Has(version, label string) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	t, ok := m.versions[version]
	return ok && t.Has(label)
}

// Labels returns at most limit labels of the given version stored after
// the afterLabel one in insertion order. Limit is capped by MaxSiblings,
// non-positive limit means MaxSiblings.
func (m *Manager) Labels(version, afterLabel string, limit int) ([]string, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	t, err := m.tree(version)
	if err != nil {
		return nil, err
	}
	if m.maxSiblings > 0 && (limit <= 0 || limit > m.maxSiblings) {
		limit = m.maxSiblings
	}
	entries := t.EntriesAfter(afterLabel, limit)
	res := make([]string, len(entries))
	for i := range entries {
		res[i] = entries[i].Label
	}
	return res, nil
}

// RootProofHash returns the proof hash of the given version.
func (m *Manager) RootProofHash(version string) (util.Uint256, error) {
	info, err := m.RootInfo(version)
	return info.ProofHash, err
}

// RootInfo returns radix info (proof hash, height, size and bytes) of the
// given version.
func (m *Manager) RootInfo(version string) (radix.Info, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	t, err := m.tree(version)
	if err != nil {
		return radix.Info{}, err
	}
	return t.RadixInfo(), nil
}

// Proof returns a proof of the value stored under label in the given
// version. Proofs of the final version are cached.
func (m *Manager) Proof(version, label string) (*radix.Proof, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	t, err := m.tree(version)
	if err != nil {
		return nil, err
	}
	cached := m.proofs != nil && version == m.final
	if cached {
		if p, ok := m.proofs.Get(label); ok {
			m.hits.Inc()
			return p.(*radix.Proof), nil
		}
		m.misses.Inc()
	}
	v, ok := t.Get(label).(*state.Leaf)
	if !ok {
		return nil, fmt.Errorf("%w: %s", radix.ErrNotFound, label)
	}
	p := t.ProofOfStateNode(label, v.Proof())
	if cached {
		m.proofs.Add(label, p)
	}
	return p, nil
}

// VerifyProof checks p against the root proof hash of the given version.
func (m *Manager) VerifyProof(version string, p *radix.Proof) error {
	h, err := m.RootProofHash(version)
	if err != nil {
		return err
	}
	return radix.VerifyProof(h, p, m.cfg)
}

// Stats returns proof cache statistics.
func (m *Manager) Stats() Stats {
	return Stats{
		CacheHits:   m.hits.Load(),
		CacheMisses: m.misses.Load(),
	}
}

func snapshotKey(version string) []byte {
	return storage.AppendPrefix(storage.DataRadixSnapshot, []byte(version))
}

// Persist writes a snapshot of the given version to the store. The final
// version pointer is stored along with the final version.
func (m *Manager) Persist(version string) error {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.store == nil {
		return errors.New("no store configured")
	}
	t, err := m.tree(version)
	if err != nil {
		return err
	}
	buf := io.NewBufBinWriter()
	t.EncodeSnapshot(buf.BinWriter, m.codec)
	if buf.Err != nil {
		return fmt.Errorf("can't encode %s: %w", version, buf.Err)
	}
	data, err := compressSnapshot(buf.Bytes())
	if err != nil {
		return err
	}
	puts := map[string][]byte{string(snapshotKey(version)): data}
	if version == m.final {
		puts[string(storage.SYSFinalVersion.Bytes())] = []byte(version)
	}
	if err := m.store.PutChangeSet(puts); err != nil {
		return fmt.Errorf("can't persist %s: %w", version, err)
	}
	m.log.Info("version persisted",
		zap.String("version", version),
		zap.Int("values", t.NumChildStateNodes()),
		zap.Int("raw", buf.Len()),
		zap.Int("compressed", len(data)))
	return nil
}

// Load restores the given version from the store.
func (m *Manager) Load(version string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.store == nil {
		return errors.New("no store configured")
	}
	if _, ok := m.versions[version]; ok {
		return fmt.Errorf("%w: %s", ErrVersionExists, version)
	}
	t, err := m.loadTree(version)
	if err != nil {
		return err
	}
	m.versions[version] = t
	m.updateMetrics()
	return nil
}

// PersistedVersions returns names of all versions stored in the store.
func (m *Manager) PersistedVersions() []string {
	if m.store == nil {
		return nil
	}
	var res []string
	m.store.Seek(storage.SeekRange{Prefix: storage.DataRadixSnapshot.Bytes()}, func(k, _ []byte) bool {
		res = append(res, string(k[1:]))
		return true
	})
	return res
}

func (m *Manager) loadTree(version string) (*radix.Tree, error) {
	data, err := m.store.Get(snapshotKey(version))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoVersion, version)
		}
		return nil, err
	}
	data, err = decompressSnapshot(data)
	if err != nil {
		return nil, err
	}
	t, err := radix.DecodeSnapshot(io.NewBinReaderFromBuf(data), m.codec, nil, m.cfg, m.log)
	if err != nil {
		return nil, fmt.Errorf("can't decode %s: %w", version, err)
	}
	if t.Version() != version {
		return nil, fmt.Errorf("%w: snapshot of %s stored as %s", radix.ErrInvalidSnapshot, t.Version(), version)
	}
	return t, nil
}
