package game

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/config"
	"github.com/pthm-cable/selfdrive/controls"
	"github.com/pthm-cable/selfdrive/neural"
	"github.com/pthm-cable/selfdrive/telemetry"
)

// testConfig is a single straight lane with borders at x=10 and x=90 and no traffic.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Road.CenterX = 50
	cfg.Road.Width = 80
	cfg.Road.LaneCount = 1
	cfg.Traffic.Cars = nil
	cfg.Car.SpawnLane = 0
	cfg.Car.SpawnY = 0
	cfg.Population.Size = 10
	return cfg
}

func newTestGame(t *testing.T, cfg *config.Config, opts Options) *Game {
	t.Helper()
	if opts.Store == nil {
		opts.Store = telemetry.NewMemoryChampionStore()
	}
	g, err := NewGameWithOptions(cfg, opts)
	require.NoError(t, err)
	t.Cleanup(g.Unload)
	return g
}

func keysGame(t *testing.T, player controls.Source) *Game {
	t.Helper()
	return newTestGame(t, testConfig(), Options{Mode: config.ModeKeys, Player: player})
}

func TestKeysModeNeedsPlayer(t *testing.T) {
	_, err := NewGameWithOptions(testConfig(), Options{
		Mode:  config.ModeKeys,
		Store: telemetry.NewMemoryChampionStore(),
	})
	assert.Error(t, err)
}

func TestForwardOnStraightRoadStaysUndamaged(t *testing.T) {
	g := keysGame(t, controls.ConstantForward())

	car, ok := g.Leader()
	require.True(t, ok)
	assert.Equal(t, components.KindPlayer, car.Kind)
	assert.Equal(t, 50.0, car.Pose.X)

	prevY := car.Pose.Y
	for i := 0; i < 50; i++ {
		g.Step()
		car, _ = g.Car(car.Entity)
		require.False(t, car.Damaged, "damaged at tick %d", g.Tick())
		require.Less(t, car.Pose.Y, prevY, "y did not decrease at tick %d", g.Tick())
		prevY = car.Pose.Y
	}
	assert.Less(t, car.Pose.Y, 0.0)
	assert.Equal(t, int32(50), g.Tick())
}

func TestCarOutsideBorderIsDamagedOnFirstStep(t *testing.T) {
	g := keysGame(t, controls.Scripted{})
	e := g.AddCar(components.KindPlayer, components.Pose{X: 5, Y: 0}, controls.ConstantForward())

	car, _ := g.Car(e)
	assert.False(t, car.Damaged)
	assert.Nil(t, car.Polygon)

	g.Step()
	car, _ = g.Car(e)
	assert.True(t, car.Damaged)
	alive, damaged := g.Counts()
	assert.Equal(t, 1, alive)
	assert.Equal(t, 1, damaged)

	// Damaged cars freeze but keep sensing.
	frozen := car.Pose
	g.Step()
	car, _ = g.Car(e)
	assert.Equal(t, frozen, car.Pose)
	assert.Len(t, car.Readings, g.Config().Sensors.RayCount)
}

func TestSensingSeesThisTicksTraffic(t *testing.T) {
	g := keysGame(t, controls.Scripted{})
	g.AddCar(components.KindTraffic, components.Pose{X: 50, Y: -100}, controls.ConstantForward())

	g.Step()
	player, ok := g.Leader()
	require.True(t, ok)
	require.Len(t, player.Readings, 5)
	center := player.Readings[2]
	require.NotNil(t, center)

	// Traffic moved 0.15 up before the player sensed it; its rear edge is at y=-75.15.
	want := 75.15 / g.Config().Sensors.RayLength
	assert.InDelta(t, want, center.Offset, 1e-9)
}

func TestTrafficIgnoresControlledCars(t *testing.T) {
	g := keysGame(t, controls.Scripted{})
	// Traffic spawned overlapping the player: the player is damaged, traffic is not.
	traffic := g.AddCar(components.KindTraffic, components.Pose{X: 60, Y: 0}, controls.ConstantForward())

	g.Step()
	tc, _ := g.Car(traffic)
	assert.False(t, tc.Damaged)
	player, _ := g.Leader()
	assert.True(t, player.Damaged)
}

func TestPopulationFromChampionKeepsElite(t *testing.T) {
	cfg := testConfig()
	store := telemetry.NewMemoryChampionStore()
	champion, err := neural.NewNetwork(rand.New(rand.NewSource(3)), cfg.Derived.Topology...)
	require.NoError(t, err)
	require.NoError(t, store.Save(champion))

	g := newTestGame(t, cfg, Options{Seed: 1, Store: store})
	cars := g.Cars()
	require.Len(t, cars, cfg.Population.Size)

	want := champion.MarshalWeights()
	assert.Equal(t, want, cars[0].Network.Net.MarshalWeights(), "index 0 must be the unmodified champion")
	for _, c := range cars[1:] {
		assert.NotEqual(t, want, c.Network.Net.MarshalWeights())
		assert.NotSame(t, cars[0].Network.Net, c.Network.Net)
	}
}

func TestMismatchedChampionFallsBackToRandom(t *testing.T) {
	cfg := testConfig()
	store := telemetry.NewMemoryChampionStore()
	wrong, err := neural.NewNetwork(rand.New(rand.NewSource(3)), 3, 4)
	require.NoError(t, err)
	require.NoError(t, store.Save(wrong))

	g := newTestGame(t, cfg, Options{Seed: 1, Store: store})
	cars := g.Cars()
	require.Len(t, cars, cfg.Population.Size)
	assert.True(t, cars[0].Network.Net.HasTopology(cfg.Derived.Topology))
	assert.NotEqual(t, cars[0].Network.Net.MarshalWeights(), cars[1].Network.Net.MarshalWeights())
}

func TestCorruptChampionFileFallsBackToRandom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"network": 12`), 0644))

	g := newTestGame(t, testConfig(), Options{Store: telemetry.NewFileChampionStore(path)})
	alive, _ := g.Counts()
	assert.Equal(t, 10, alive)
}

func TestSaveAndDiscard(t *testing.T) {
	store := telemetry.NewMemoryChampionStore()
	g := newTestGame(t, testConfig(), Options{Seed: 5, Store: store})
	for i := 0; i < 20; i++ {
		g.Step()
	}

	require.NoError(t, g.Save())
	leader, _ := g.Leader()
	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, leader.Network.Net.MarshalWeights(), saved.MarshalWeights())

	require.NoError(t, g.Discard())
	_, err = store.Load()
	assert.ErrorIs(t, err, telemetry.ErrNoChampion)
}

func TestSaveWithoutNetwork(t *testing.T) {
	g := keysGame(t, controls.ConstantForward())
	assert.ErrorIs(t, g.Save(), ErrNoLeaderNetwork)
}

func TestLeaderIsLowestY(t *testing.T) {
	g := newTestGame(t, testConfig(), Options{Seed: 9})
	for i := 0; i < 40; i++ {
		g.Step()
	}

	leader, ok := g.Leader()
	require.True(t, ok)
	for _, c := range g.Cars() {
		assert.GreaterOrEqual(t, c.Pose.Y, leader.Pose.Y)
	}
}

func TestPluggableFitness(t *testing.T) {
	g := newTestGame(t, testConfig(), Options{
		Seed:    9,
		Fitness: func(p components.Pose, _ bool) float64 { return p.Y },
	})
	for i := 0; i < 40; i++ {
		g.Step()
	}

	leader, _ := g.Leader()
	for _, c := range g.Cars() {
		assert.LessOrEqual(t, c.Pose.Y, leader.Pose.Y)
	}
}

func TestRestartSeedsFromSavedLeader(t *testing.T) {
	store := telemetry.NewMemoryChampionStore()
	g := newTestGame(t, testConfig(), Options{Seed: 2, Store: store})
	for i := 0; i < 30; i++ {
		g.Step()
	}
	require.NoError(t, g.Save())
	leader, _ := g.Leader()
	want := leader.Network.Net.MarshalWeights()

	g.Restart()
	assert.Equal(t, 1, g.Generation())
	assert.Equal(t, int32(0), g.Tick())

	cars := g.Cars()
	assert.Equal(t, want, cars[0].Network.Net.MarshalWeights())
	for _, c := range cars {
		assert.Equal(t, 0.0, c.Pose.Y)
		assert.False(t, c.Damaged)
	}
}

func TestDeterministicWithSeed(t *testing.T) {
	cfg := testConfig()
	cfg.Population.Size = 100 // large enough for parallel sensing

	run := func() CarView {
		g := newTestGame(t, cfg, Options{Seed: 11})
		for i := 0; i < 120; i++ {
			g.Step()
		}
		leader, _ := g.Leader()
		return leader
	}

	a, b := run(), run()
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.Pose, b.Pose)
}

func TestParallelSensingMatchesSerial(t *testing.T) {
	cfg := config.Default()
	cfg.Population.Size = 100
	g := newTestGame(t, cfg, Options{Seed: 4})
	for i := 0; i < 30; i++ {
		g.Step()
	}

	rig := g.sensors.Rig()
	for _, c := range g.Cars() {
		if c.Kind != components.KindAI {
			continue
		}
		_, want := rig.Sense(c.ID, c.Pose, g.index, nil)
		require.Len(t, c.Readings, len(want))
		for i := range want {
			if want[i] == nil {
				assert.Nil(t, c.Readings[i], "car %d ray %d", c.ID, i)
				continue
			}
			require.NotNil(t, c.Readings[i], "car %d ray %d", c.ID, i)
			assert.True(t, math.Abs(want[i].Offset-c.Readings[i].Offset) < 1e-12)
		}
	}
}

func TestStatsWindows(t *testing.T) {
	cfg := testConfig()
	cfg.Telemetry.StatsWindow = 10

	var windows []telemetry.WindowStats
	g := newTestGame(t, cfg, Options{
		Seed:          3,
		StatsCallback: func(s telemetry.WindowStats) { windows = append(windows, s) },
	})
	for i := 0; i < 25; i++ {
		g.Step()
	}

	require.Len(t, windows, 2)
	assert.Equal(t, int32(10), windows[0].WindowEndTick)
	assert.Equal(t, int32(20), windows[1].WindowEndTick)
	assert.Equal(t, cfg.Population.Size, windows[1].Alive+windows[1].Damaged)
}

func TestStepsPerUpdateAndPause(t *testing.T) {
	g := keysGame(t, controls.ConstantForward())
	g.SetStepsPerUpdate(3)
	g.Update()
	assert.Equal(t, int32(3), g.Tick())

	g.TogglePause()
	g.Update()
	assert.Equal(t, int32(3), g.Tick())
	g.UpdateHeadless()
	assert.Equal(t, int32(6), g.Tick())

	g.SetStepsPerUpdate(100)
	assert.Equal(t, 10, g.StepsPerUpdate())
}
