package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/xdooria-pet/app/pet/internal/catalog"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/event"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/metrics"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/model"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/policy"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/progression"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/repository"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/store"
	"github.com/lk2023060901/xdooria-pet/app/pet/internal/store/memstore"
	"github.com/lk2023060901/xdooria-pet/pkg/idgen"
	"github.com/lk2023060901/xdooria-pet/pkg/logger"
)

const testUser int64 = 1001

const (
	hareID  int32 = 1
	drakeID int32 = 2
	rocID   int32 = 3
)

const (
	hareEgg     = "egg_common"
	drakeEgg    = "egg_epic"
	hareFood    = "carrot"
	defaultFood = "food_common"
)

type fixture struct {
	store    *memstore.Store
	recorder *event.Recorder
	metrics  *metrics.PetMetrics
	policy   *policy.Config
	pets     *PetService
	mounts   *MountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLogger(t, logger.NewNoop())
}

func newFixtureWithLogger(t *testing.T, l logger.Logger) *fixture {
	t.Helper()

	reg, err := catalog.New([]*model.CreatureDefinition{
		{
			ID:           hareID,
			Key:          "moss_hare",
			Name:         "Moss Hare",
			Type:         model.CreatureTypeBeast,
			Rarity:       model.RarityCommon,
			BaseStats:    map[string]int64{model.StatHP: 80, model.StatSpeed: 12},
			FeedMaterial: hareFood,
			MaxLevel:     30,
		},
		{
			ID:             drakeID,
			Key:            "ember_drake",
			Name:           "Ember Drake",
			Type:           model.CreatureTypeDragon,
			Rarity:         model.RarityEpic,
			BaseStats:      map[string]int64{model.StatHP: 300, model.StatAttack: 40},
			MaxLevel:       60,
			MountEligible:  true,
			MountSpeedBase: 1.5,
		},
		{
			ID:             rocID,
			Key:            "storm_roc",
			Name:           "Storm Roc",
			Type:           model.CreatureTypeBird,
			Rarity:         model.RarityRare,
			BaseStats:      map[string]int64{model.StatSpeed: 30},
			MaxLevel:       50,
			MountEligible:  true,
			MountSpeedBase: 2,
		},
	})
	require.NoError(t, err)

	p := policy.DefaultConfig()
	m, err := metrics.New(nil)
	require.NoError(t, err)

	st := memstore.New()
	rec := &event.Recorder{}
	deps := Deps{
		Store:     st,
		Registry:  reg,
		Policy:    p,
		Engine:    progression.NewEngine(p),
		Repo:      repository.NewOwnershipRepository(st, nil, l),
		Publisher: rec,
		Metrics:   m,
	}

	return &fixture{
		store:    st,
		recorder: rec,
		metrics:  m,
		policy:   p,
		pets:     NewPetService(l, deps, idgen.NewSequence(0)),
		mounts:   NewMountService(l, deps),
	}
}

func (f *fixture) grant(t *testing.T, material string, quantity int64) {
	t.Helper()
	_, err := f.pets.GrantMaterial(context.Background(), testUser, material, quantity)
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, material string) int64 {
	t.Helper()
	b, err := f.pets.Balance(context.Background(), testUser, material)
	require.NoError(t, err)
	return b
}

func (f *fixture) hatch(t *testing.T, creatureID int32) *model.Ownership {
	t.Helper()
	def, err := f.pets.definition(creatureID)
	require.NoError(t, err)
	f.grant(t, def.AcquireMaterialKey(), f.policy.HatchCost)

	res, err := f.pets.Hatch(context.Background(), testUser, creatureID)
	require.NoError(t, err)
	return res.Ownership
}

// mutate 直接修改存储中的记录
func (f *fixture) mutate(t *testing.T, ownershipID int64, fn func(rec *model.Ownership)) {
	t.Helper()
	err := f.store.WithTx(context.Background(), testUser, func(ctx context.Context, tx store.Tx) error {
		rec, err := tx.Ownerships().GetByID(ctx, testUser, ownershipID)
		if err != nil {
			return err
		}
		fn(rec)
		return tx.Ownerships().Save(ctx, rec)
	})
	require.NoError(t, err)
}

func (f *fixture) get(t *testing.T, ownershipID int64) *model.Ownership {
	t.Helper()
	rec, err := f.pets.Repo.Get(context.Background(), testUser, ownershipID)
	require.NoError(t, err)
	return rec
}

// tamed 孵化并驯服一只坐骑
func (f *fixture) tamed(t *testing.T, creatureID int32) *model.Ownership {
	t.Helper()
	rec := f.hatch(t, creatureID)
	f.mutate(t, rec.ID, func(r *model.Ownership) { r.Level = f.policy.TameMinLevel })
	for _, c := range f.policy.TameCosts {
		f.grant(t, c.Material, c.Quantity)
	}
	rec, err := f.mounts.TameMount(context.Background(), testUser, rec.ID)
	require.NoError(t, err)
	return rec
}

// userLogger 记录每条带 context 日志中的用户 ID
type userLogger struct {
	logger.NoopLogger

	mu      sync.Mutex
	entries map[string]int64
}

func newUserLogger() *userLogger {
	return &userLogger{entries: make(map[string]int64)}
}

func (l *userLogger) record(ctx context.Context, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	userID, _ := logger.UserIDFromContext(ctx)
	l.entries[msg] = userID
}

func (l *userLogger) InfoContext(ctx context.Context, msg string, _ ...interface{}) {
	l.record(ctx, msg)
}

func (l *userLogger) WarnContext(ctx context.Context, msg string, _ ...interface{}) {
	l.record(ctx, msg)
}

func (l *userLogger) Named(string) logger.Logger              { return l }
func (l *userLogger) WithFields(...interface{}) logger.Logger { return l }

func TestService_LogsCarryUserFromContext(t *testing.T) {
	l := newUserLogger()
	f := newFixtureWithLogger(t, l)
	ctx := context.Background()

	_, err := f.pets.Hatch(ctx, testUser, drakeID)
	require.Error(t, err)

	f.hatch(t, hareID)

	l.mu.Lock()
	defer l.mu.Unlock()
	require.Contains(t, l.entries, "operation rejected")
	require.Contains(t, l.entries, "pet hatched")
	require.Contains(t, l.entries, "material granted")
	require.Equal(t, testUser, l.entries["operation rejected"])
	require.Equal(t, testUser, l.entries["pet hatched"])
	require.Equal(t, testUser, l.entries["material granted"])
}
