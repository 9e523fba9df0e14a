package config

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/spatialgw/spatialworker/engine/gwlog"
)

func init() {
	SetConfigFile("../../spatialworker.ini.sample")
}

func TestLoad(t *testing.T) {
	config := Get()
	if config == nil {
		t.FailNow()
	}
	gwlog.Debugf("spatialworker config: \n%s", DumpPretty(config))
	assert.Equal(t, 2, len(config.Workers))
	assert.Equal(t, "physics", config.WorkerCommon.WorkerType)
	assert.Equal(t, "spawn_rules.toml.sample", config.WorkerCommon.RulesFile)
}

func TestReload(t *testing.T) {
	Get()
	config := Reload()
	assert.T(t, config != nil)
}

func TestGetWorker(t *testing.T) {
	w1 := GetWorker(1)
	assert.Equal(t, 25001, w1.HTTPPort)
	assert.Equal(t, "W1_", w1.PathPrefix)
	assert.Equal(t, 32, w1.SpawnPerTick)
	assert.Equal(t, "worker.log", w1.LogFile)

	w2 := GetWorker(2)
	assert.Equal(t, 16, w2.SpawnPerTick)
	assert.Equal(t, "worker2.log", w2.LogFile)
	assert.Equal(t, "physics", w2.WorkerType)

	assert.T(t, GetWorker(3) == nil)
	assert.Equal(t, []int{1, 2}, GetWorkerIDs())
}

func TestGetIDPool(t *testing.T) {
	cfg := GetIDPool()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, 256, cfg.BlockSize)
	assert.Equal(t, 64, cfg.LowWatermark)
	assert.Equal(t, "spatialworker:entityid", cfg.Key)
}

func TestGetInterest(t *testing.T) {
	cfg := GetInterest()
	assert.Equal(t, 10.0, cfg.Frequency)
	assert.T(t, cfg.FullSnapshot)
}

func TestParseConfigDefaults(t *testing.T) {
	cfg := ParseConfig([]byte(`
[worker1]
[idpool]
type = redis_cluster
start_nodes_1 = 127.0.0.1:7000
start_nodes_2 = 127.0.0.1:7001
`))
	assert.Equal(t, 32, cfg.Workers[1].SpawnPerTick)
	assert.Equal(t, "worker", cfg.Workers[1].WorkerType)
	assert.Equal(t, 2, len(cfg.IDPool.StartNodes))
	assert.T(t, cfg.IDPool.StartNodes.Contains("127.0.0.1:7001"))
}

func TestParseConfigInvalid(t *testing.T) {
	defer func() {
		assert.T(t, recover() != nil, "missing workers should panic")
	}()
	ParseConfig([]byte(`
[idpool]
type = memory
`))
}

func TestSetConfigFile(t *testing.T) {
	defer SetConfigFile("../../spatialworker.ini.sample")
	SetConfigFile("spatialworker.ini")
	assert.Equal(t, "spatialworker.ini", GetConfigFilePath())
	assert.Equal(t, "", GetConfigDir())
}
