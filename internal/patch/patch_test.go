package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/ballast/internal/compose"
	"github.com/cameronsjo/ballast/internal/memory"
)

func mustLoad(t *testing.T, text string) *compose.Document {
	t.Helper()
	doc, err := compose.Load([]byte(text))
	require.NoError(t, err)
	return doc
}

func TestSetScalarCreatesMissingAncestors(t *testing.T) {
	doc := mustLoad(t, `services:
  cassandra:
    image: cassandra:4.1
    deploy:
      resources:
        limits:
          memory: 1000M
`)

	limits := compose.ParsePath("services.cassandra.deploy.resources.limits.memory")
	reservations := compose.ParsePath("services.cassandra.deploy.resources.reservations.memory")

	changes, err := Apply(doc, []Edit{
		SetScalar{Path: limits, Value: "600M"},
		SetScalar{Path: reservations, Value: "500M"},
	})
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, Change{Path: limits.String(), Old: "1000M", New: "600M"}, changes[0])
	assert.Equal(t, Change{Path: reservations.String(), Old: Unset, New: "500M"}, changes[1])

	got, ok := doc.Get(reservations)
	require.True(t, ok)
	assert.Equal(t, "500M", got)
}

func TestUpsertEnvListShape(t *testing.T) {
	doc := mustLoad(t, `services:
  app:
    environment:
    - A=1
    - B=2
`)

	changes, err := Apply(doc, []Edit{
		UpsertEnv{Service: "app", Key: "B", Value: "9"},
		UpsertEnv{Service: "app", Key: "C", Value: "3"},
	})
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "2", changes[0].Old)
	assert.Equal(t, Unset, changes[1].Old)

	node, ok := doc.Get(compose.ParsePath("services.app.environment"))
	require.True(t, ok)
	assert.Equal(t, []any{"A=1", "B=9", "C=3"}, node)
}

func TestUpsertEnvMappingShape(t *testing.T) {
	doc := mustLoad(t, `services:
  app:
    environment:
      A: 1
      B: two
`)

	_, err := Apply(doc, []Edit{
		UpsertEnv{Service: "app", Key: "B", Value: "nine"},
	})
	require.NoError(t, err)

	block, err := compose.ParseEnv(mustGet(t, doc, "services.app.environment"))
	require.NoError(t, err)
	assert.Equal(t, compose.ShapeMapping, block.Shape())

	v, ok := block.Get("B")
	require.True(t, ok)
	assert.Equal(t, "nine", v)
}

func TestUpsertEnvCreatesMappingWhenAbsent(t *testing.T) {
	doc := mustLoad(t, "services:\n  app:\n    image: nginx\n")

	changes, err := Apply(doc, []Edit{
		UpsertEnv{Service: "app", Key: "JVM_OPTS", Value: "-Xmx200M"},
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, Unset, changes[0].Old)

	block, err := compose.ParseEnv(mustGet(t, doc, "services.app.environment"))
	require.NoError(t, err)
	assert.Equal(t, compose.ShapeMapping, block.Shape())
}

func TestScaleMemory(t *testing.T) {
	doc := mustLoad(t, `services:
  app:
    deploy:
      resources:
        reservations:
          memory: 500M
`)

	path := compose.ParsePath("services.app.deploy.resources.reservations.memory")
	changes, err := Apply(doc, []Edit{
		ScaleMemory{Path: path, Factor: 0.5, Floor: memory.DefaultFloor},
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, Change{Path: path.String(), Old: "500M", New: "250M"}, changes[0])
}

func TestScaleMemoryFloor(t *testing.T) {
	doc := mustLoad(t, `services:
  app:
    deploy:
      resources:
        reservations:
          memory: 50M
`)

	path := compose.ParsePath("services.app.deploy.resources.reservations.memory")
	edit := ScaleMemory{Path: path, Factor: 0.5, Floor: 32}

	changes, err := Apply(doc, []Edit{edit})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "32M", changes[0].New)

	// Second application is a no-op: the floor has been reached.
	changes, err = Apply(doc, []Edit{edit})
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestScaleMemoryMissingIsNoOp(t *testing.T) {
	doc := mustLoad(t, "services:\n  app:\n    image: nginx\n")
	before, err := doc.Marshal()
	require.NoError(t, err)

	changes, err := Apply(doc, []Edit{
		ScaleMemory{
			Path:   compose.ParsePath("services.app.deploy.resources.reservations.memory"),
			Factor: 0.5,
			Floor:  32,
		},
	})
	require.NoError(t, err)
	assert.Empty(t, changes)

	after, err := doc.Marshal()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestScaleMemoryBareInteger(t *testing.T) {
	doc := mustLoad(t, `services:
  app:
    deploy:
      resources:
        reservations:
          memory: 1536
`)

	path := compose.ParsePath("services.app.deploy.resources.reservations.memory")
	changes, err := Apply(doc, []Edit{
		ScaleMemory{Path: path, Factor: 0.5, Floor: 32},
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "768M", changes[0].New)
}

func TestScaleMemoryBadValue(t *testing.T) {
	doc := mustLoad(t, `services:
  app:
    deploy:
      resources:
        reservations:
          memory: plenty
`)

	_, err := Apply(doc, []Edit{
		ScaleMemory{
			Path:   compose.ParsePath("services.app.deploy.resources.reservations.memory"),
			Factor: 0.5,
			Floor:  32,
		},
	})
	require.ErrorIs(t, err, memory.ErrParse)
}

func TestDeleteKey(t *testing.T) {
	doc := mustLoad(t, `services:
  app:
    image: nginx
  grafana:
    image: grafana/grafana
volumes:
  grafana-storage:
    driver: local
`)

	changes, err := Apply(doc, []Edit{
		DeleteKey{Path: compose.ParsePath("services.grafana")},
		DeleteKey{Path: compose.ParsePath("services.loki")}, // absent: no-op
		DeleteKey{Path: compose.ParsePath("volumes.grafana-storage")},
	})
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, "services.grafana", changes[0].Path)
	assert.Equal(t, Unset, changes[0].New)
	assert.Equal(t, "volumes.grafana-storage", changes[1].Path)

	assert.False(t, doc.HasService("grafana"))
	assert.True(t, doc.HasService("app"))
}

func TestApplyAbortsOnError(t *testing.T) {
	doc := mustLoad(t, "services:\n  app:\n    image: nginx\n")

	changes, err := Apply(doc, []Edit{
		SetScalar{Path: compose.ParsePath("services.app.restart"), Value: "always"},
		SetScalar{Path: compose.ParsePath("services.app.image.tag"), Value: "latest"},
		SetScalar{Path: compose.ParsePath("services.app.cpus"), Value: "2"},
	})
	require.ErrorIs(t, err, compose.ErrTypeConflict)

	// the first edit stayed applied, the third never ran
	require.Len(t, changes, 1)
	got, ok := doc.Get(compose.ParsePath("services.app.restart"))
	require.True(t, ok)
	assert.Equal(t, "always", got)
	_, ok = doc.Get(compose.ParsePath("services.app.cpus"))
	assert.False(t, ok)
}

func TestApplyCloneIsAtomic(t *testing.T) {
	doc := mustLoad(t, "services:\n  app:\n    image: nginx\n")

	_, err := ApplyClone(doc, []Edit{
		SetScalar{Path: compose.ParsePath("services.app.restart"), Value: "always"},
		SetScalar{Path: compose.ParsePath("services.app.image.tag"), Value: "latest"},
	})
	require.ErrorIs(t, err, compose.ErrTypeConflict)

	// nothing stuck, not even the first edit
	_, ok := doc.Get(compose.ParsePath("services.app.restart"))
	assert.False(t, ok)
}

func TestApplyCloneSwapsOnSuccess(t *testing.T) {
	doc := mustLoad(t, "services:\n  app:\n    image: nginx\n")

	changes, err := ApplyClone(doc, []Edit{
		SetScalar{Path: compose.ParsePath("services.app.restart"), Value: "always"},
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)

	got, ok := doc.Get(compose.ParsePath("services.app.restart"))
	require.True(t, ok)
	assert.Equal(t, "always", got)
}

func mustGet(t *testing.T, doc *compose.Document, path string) any {
	t.Helper()
	node, ok := doc.Get(compose.ParsePath(path))
	require.True(t, ok)
	return node
}
