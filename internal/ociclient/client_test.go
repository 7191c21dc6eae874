package ociclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLinkNext(t *testing.T) {
	header := `<https://ghcr.io/v2/ns/name/tags/list?n=50&last=abc>; rel="next"`
	assert.Equal(t, "https://ghcr.io/v2/ns/name/tags/list?n=50&last=abc", parseLinkNext(header))
}

func TestParseLinkNext_NoNext(t *testing.T) {
	assert.Equal(t, "", parseLinkNext(""))
	assert.Equal(t, "", parseLinkNext(`<https://x>; rel="prev"`))
}

func TestParseChallenge(t *testing.T) {
	header := `Bearer realm="https://auth.ghcr.io/token",service="ghcr.io",scope="repository:ns/name:pull"`
	ch, ok := ParseChallenge(header)
	assert.True(t, ok)
	assert.Equal(t, "https://auth.ghcr.io/token", ch.Realm)
	assert.Equal(t, "ghcr.io", ch.Service)
	assert.Equal(t, "repository:ns/name:pull", ch.Scope)
}

func TestParseChallenge_NotBearer(t *testing.T) {
	_, ok := ParseChallenge(`Basic realm="x"`)
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(200, nil))
	assert.Error(t, classify(500, nil))
	assert.Error(t, classify(429, nil))
	assert.Error(t, classify(401, nil))
	assert.Error(t, classify(404, nil))
}
