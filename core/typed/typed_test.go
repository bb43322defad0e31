package typed

import (
	"hash/maphash"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userID int

type sessionKey struct {
	Tenant string
	ID     int
}

type payload struct {
	Items []string
}

func TestKey_Equality(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Key
		equal bool
	}{
		{"same type same value", KeyOf(userID(1)), KeyOf(userID(1)), true},
		{"same type other value", KeyOf(userID(1)), KeyOf(userID(2)), false},
		{"other type same underlying value", KeyOf(userID(1)), KeyOf(1), false},
		{"struct keys", KeyOf(sessionKey{"a", 1}), KeyOf(sessionKey{"a", 1}), true},
		{"struct keys differ", KeyOf(sessionKey{"a", 1}), KeyOf(sessionKey{"b", 1}), false},
		{"string vs any holding string", KeyOf("x"), KeyOf[any]("x"), true},
		{"zero keys", Key{}, Key{}, true},
		{"zero vs value", Key{}, KeyOf(0), false},
	}

	seed := maphash.MakeSeed()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.equal, tt.a.Equal(tt.b))
			require.Equal(t, tt.equal, tt.a == tt.b)
			if tt.equal {
				require.Equal(t, tt.a.Hash(seed), tt.b.Hash(seed))
			}
		})
	}
}

func TestKey_MapLookup(t *testing.T) {
	m := map[Key]string{
		KeyOf(userID(7)):             "user",
		KeyOf(sessionKey{"acme", 7}): "session",
		KeyOf(7):                     "int",
	}

	require.Equal(t, "user", m[KeyOf(userID(7))])
	require.Equal(t, "session", m[KeyOf(sessionKey{"acme", 7})])
	require.Equal(t, "int", m[KeyOf(7)])
	_, ok := m[KeyOf(int64(7))]
	require.False(t, ok)
}

func TestKeyOf_NotComparablePanics(t *testing.T) {
	require.PanicsWithValue(t, "typed: key of type []int is not comparable", func() {
		KeyOf[any]([]int{1})
	})
}

func TestDowncastKey(t *testing.T) {
	k := KeyOf(sessionKey{"acme", 3})

	got, ok := DowncastKey[sessionKey](k)
	require.True(t, ok)
	require.Equal(t, sessionKey{"acme", 3}, got)

	_, ok = DowncastKey[userID](k)
	require.False(t, ok)

	_, ok = DowncastKey[userID](Key{})
	require.False(t, ok)
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "string(abc)", KeyOf("abc").String())
	assert.Equal(t, "github.com/codewandler/typedcache/core/typed.userID(5)", KeyOf(userID(5)).String())
	assert.Equal(t, "<nil>", Key{}.String())
	assert.True(t, Key{}.IsZero())
	assert.False(t, KeyOf("").IsZero())
}

func TestKey_Fingerprint(t *testing.T) {
	assert.Equal(t, KeyOf("a").Fingerprint(), KeyOf("a").Fingerprint())
	assert.NotEqual(t, KeyOf("1").Fingerprint(), KeyOf(1).Fingerprint())
	assert.NotEqual(t, KeyOf(userID(1)).Fingerprint(), KeyOf(1).Fingerprint())
	assert.NotEqual(t, KeyOf(sessionKey{"a", 1}).Fingerprint(), KeyOf(sessionKey{"a", 2}).Fingerprint())
}

func TestValue_Downcast(t *testing.T) {
	v := ValueOf(payload{Items: []string{"a"}})

	got, ok := Downcast[payload](v)
	require.True(t, ok)
	require.Equal(t, []string{"a"}, got.Items)

	_, ok = Downcast[string](v)
	require.False(t, ok)
	require.True(t, Is[payload](v))
	require.False(t, Is[*payload](v))
	require.Equal(t, "github.com/codewandler/typedcache/core/typed.payload", v.Type().Name)
}

func TestValue_DowncastPtr(t *testing.T) {
	v := ValueOf(10)

	p, ok := DowncastPtr[int](v)
	require.True(t, ok)
	*p = 11

	got, ok := Downcast[int](v)
	require.True(t, ok)
	require.Equal(t, 11, got)

	_, ok = DowncastPtr[int64](v)
	require.False(t, ok)
}

func TestValue_Zero(t *testing.T) {
	var v Value
	require.True(t, v.IsZero())
	_, ok := Downcast[int](v)
	require.False(t, ok)
	require.Nil(t, v.Type().Type)
}

func TestValue_NilInterface(t *testing.T) {
	v := ValueOf[any](nil)
	require.False(t, v.IsZero())

	got, ok := Downcast[any](v)
	require.True(t, ok)
	require.Nil(t, got)
}
