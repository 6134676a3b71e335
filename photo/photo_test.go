package photo

import (
	"testing"

	"github.com/mbolis/survey-forms/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	for _, name := range []string{"default", "profile", "gravatar"} {
		st, err := ParseStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, name, st.String())
	}

	_, err := ParseStrategy("eval(user.photo)")
	assert.Error(t, err)

	var st Strategy
	require.NoError(t, st.UnmarshalText([]byte(" Gravatar ")))
	assert.Equal(t, Gravatar, st)
}

func TestResolverURL(t *testing.T) {
	user := &model.User{
		Email:     " MyEmailAddress@example.com ",
		AvatarURL: "https://cdn.example.com/me.png",
	}

	assert.Equal(t, DefaultPlaceholder, Resolver{}.URL(user))
	assert.Equal(t, DefaultPlaceholder, Resolver{Strategy: Profile}.URL(nil))
	assert.Equal(t, "https://cdn.example.com/me.png", Resolver{Strategy: Profile}.URL(user))
	assert.Equal(t, "/blank.png", Resolver{Strategy: Profile, Placeholder: "/blank.png"}.URL(&model.User{}))

	// md5("myemailaddress@example.com")
	assert.Equal(t,
		"https://www.gravatar.com/avatar/0bc83cb571cd1c50ba6f3e8a78ef1346?d=mp",
		Resolver{Strategy: Gravatar}.URL(user))
	assert.Equal(t, DefaultPlaceholder, Resolver{Strategy: Gravatar}.URL(&model.User{}))
}
