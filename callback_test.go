package xmlbind_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invopop/xmlbind"
)

// Shouted finishes its own construction
type Shouted struct {
	Name  string `xml:"name"`
	Upper string
}

func (s *Shouted) AfterParse() {
	s.Upper = strings.ToUpper(s.Name)
}

// TestAfterParseCallbacks tests callbacks receive the instance returned to
// the caller, in registration order
func TestAfterParseCallbacks(t *testing.T) {
	reg := xmlbind.NewRegistry()
	s, err := xmlbind.Register[Address](reg)
	require.NoError(t, err)

	var fromCb *Address
	var calls []string
	require.NoError(t, xmlbind.AfterParse(s, func(a *Address) {
		fromCb = a
		calls = append(calls, "first")
	}))
	s.AfterParse(xmlbind.CallbackFunc(func(any) {
		calls = append(calls, "second")
	}))

	addr, err := xmlbind.Parse[Address](loadFixture(t, "address.xml"), xmlbind.WithRegistry(reg))
	require.NoError(t, err)
	assert.Same(t, addr, fromCb)
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Len(t, s.Callbacks(), 2)
}

// TestCallbacksChildrenFirst tests that nested instances are finished before
// the instances containing them
func TestCallbacksChildrenFirst(t *testing.T) {
	reg := xmlbind.NewRegistry()
	s, err := xmlbind.Register[Address](reg)
	require.NoError(t, err)
	cs, ok := reg.Schema(reflect.TypeFor[Country]())
	require.True(t, ok)

	var order []string
	require.NoError(t, xmlbind.AfterParse(cs, func(c *Country) {
		order = append(order, "country:"+c.Code)
	}))
	require.NoError(t, xmlbind.AfterParse(s, func(a *Address) {
		// the country is complete by the time the address callback runs
		require.NotNil(t, a.Country)
		order = append(order, "address:"+a.Street)
	}))

	_, err = xmlbind.Parse[Address](loadFixture(t, "address.xml"), xmlbind.WithRegistry(reg))
	require.NoError(t, err)
	assert.Equal(t, []string{"country:de", "address:Milchstrasse"}, order)
}

// TestCallbacksOncePerInstance tests every constructed instance is reported
// exactly once, including instances nested by value
func TestCallbacksOncePerInstance(t *testing.T) {
	reg := xmlbind.NewRegistry()
	_, err := xmlbind.Register[Ambigous](reg)
	require.NoError(t, err)
	is, _ := reg.Schema(reflect.TypeFor[Item]())
	ls, _ := reg.Schema(reflect.TypeFor[ItemList]())

	seen := make(map[*Item]int)
	require.NoError(t, xmlbind.AfterParse(is, func(i *Item) { seen[i]++ }))
	var lists []*ItemList
	require.NoError(t, xmlbind.AfterParse(ls, func(l *ItemList) { lists = append(lists, l) }))

	amb, err := xmlbind.Parse[Ambigous](loadFixture(t, "ambigous_items.xml"), xmlbind.WithRegistry(reg))
	require.NoError(t, err)

	assert.Len(t, seen, 7)
	for item, n := range seen {
		assert.Equal(t, 1, n, item.Name)
	}
	assert.Equal(t, 1, seen[&amb.MyItems.Items[0]])
	assert.Equal(t, 1, seen[amb.MyItems.Items[0].Item])
	require.Len(t, lists, 2)
	assert.Same(t, &amb.MyItems, lists[0])
	assert.Same(t, &amb.OthersItems, lists[1])
}

// TestCallbacksSkippedOnFailure tests that a failed parse runs no callbacks
func TestCallbacksSkippedOnFailure(t *testing.T) {
	type Coded struct {
		Code int `xml:"code,attr"`
	}
	type Located struct {
		Street  string `xml:"street"`
		Country *Coded `xml:"country"`
	}

	reg := xmlbind.NewRegistry()
	s, err := xmlbind.Register[Located](reg)
	require.NoError(t, err)
	called := false
	s.AfterParse(xmlbind.CallbackFunc(func(any) { called = true }))

	_, err = xmlbind.Parse[Located](loadFixture(t, "address.xml"), xmlbind.WithRegistry(reg))
	require.ErrorIs(t, err, xmlbind.ErrCoercion)
	assert.False(t, called)
}

// TestAfterParser tests the AfterParse method is registered as a callback
func TestAfterParser(t *testing.T) {
	v := parse[Shouted](t, []byte(`<s><name>quiet</name></s>`))
	assert.Equal(t, "QUIET", v.Upper)

	t.Run("runs first", func(t *testing.T) {
		reg := xmlbind.NewRegistry()
		s, err := xmlbind.Register[Shouted](reg)
		require.NoError(t, err)
		var upper string
		require.NoError(t, xmlbind.AfterParse(s, func(v *Shouted) { upper = v.Upper }))

		_, err = xmlbind.Parse[Shouted]([]byte(`<s><name>quiet</name></s>`), xmlbind.WithRegistry(reg))
		require.NoError(t, err)
		assert.Equal(t, "QUIET", upper)
	})
}

// TestRecordCallbacks tests callbacks on record schemas receive the record
func TestRecordCallbacks(t *testing.T) {
	reg := xmlbind.NewRegistry()
	_, err := reg.LoadYAML([]byte(addressYAML))
	require.NoError(t, err)
	s, _ := reg.Record("address")

	var got *xmlbind.Record
	s.AfterParse(xmlbind.CallbackFunc(func(instance any) {
		got = instance.(*xmlbind.Record)
	}))

	rec, err := reg.ParseRecord(loadFixture(t, "address.xml"), "address")
	require.NoError(t, err)
	assert.Same(t, rec, got)

	t.Run("typed callback on a record", func(t *testing.T) {
		err := xmlbind.AfterParse(s, func(*Address) {})
		assert.ErrorIs(t, err, xmlbind.ErrSchema)
	})
}
