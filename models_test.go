package blogify_test

import (
	"testing"

	blogify "github.com/HiravPansuriya/blogify-client"
	"github.com/stretchr/testify/assert"
)

func TestIdentityIsAdmin(t *testing.T) {
	var nilIdentity *blogify.Identity
	assert.False(t, nilIdentity.IsAdmin())
	assert.False(t, (&blogify.Identity{Role: blogify.RoleUser}).IsAdmin())
	assert.True(t, (&blogify.Identity{Role: blogify.RoleAdmin}).IsAdmin())
}
