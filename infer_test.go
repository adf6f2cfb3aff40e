package xmlbind_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invopop/xmlbind"
)

// TestParseAny tests documents bound without a declared schema
func TestParseAny(t *testing.T) {
	t.Run("single root node", func(t *testing.T) {
		rec, err := xmlbind.ParseAny(loadFixture(t, "address.xml"))
		require.NoError(t, err)
		assert.Equal(t, "Milchstrasse", rec.String("street"))
		assert.Equal(t, "23", rec.String("housenumber"))
		assert.Equal(t, "26131", rec.String("postcode"))
		assert.Equal(t, "Oldenburg", rec.String("city"))

		// no text content, so no content field
		_, ok := rec.Schema().Field("content")
		assert.False(t, ok)
		assert.False(t, rec.Has("content"))
	})

	t.Run("child elements with attributes", func(t *testing.T) {
		rec, err := xmlbind.ParseAny(loadFixture(t, "address.xml"))
		require.NoError(t, err)
		country := rec.Record("country")
		require.NotNil(t, country)
		assert.Equal(t, "de", country.String("code"))
		assert.Equal(t, "Germany", country.String("content"))
	})

	t.Run("special characters in tags", func(t *testing.T) {
		rec, err := xmlbind.ParseAny(loadFixture(t, "ambigous_items.xml"))
		require.NoError(t, err)
		items := rec.Record("my_items").Records("item")
		require.Len(t, items, 3)
		assert.Equal(t, "My first item", items[0].String("name"))
		assert.Equal(t, "My third item", items[2].String("name"))

		f, ok := rec.Schema().Field("my_items")
		require.True(t, ok)
		assert.Equal(t, []string{"my-items"}, f.Tags())
	})

	t.Run("deep nesting", func(t *testing.T) {
		rec, err := xmlbind.ParseAny(loadFixture(t, "ambigous_items.xml"))
		require.NoError(t, err)
		items := rec.Record("my_items").Records("item")
		require.NotEmpty(t, items)
		assert.Equal(t, "My first internal item", items[0].Record("item").String("name"))

		// a single occurrence is not a collection
		other := rec.Record("others_items").Record("item")
		require.NotNil(t, other)
		assert.Equal(t, "Other item", other.String("name"))
	})

	t.Run("repeated primitives", func(t *testing.T) {
		rec, err := xmlbind.ParseAny(loadFixture(t, "multiple_primitives.xml"))
		require.NoError(t, err)
		assert.Equal(t, "value", rec.String("name"))
		images, ok := rec.Get("image")
		require.True(t, ok)
		assert.Equal(t, []string{"image1", "image2"}, images)
	})

	t.Run("camel case and namespaced tags", func(t *testing.T) {
		rec, err := xmlbind.ParseAny(loadFixture(t, "subclass_namespace.xml"))
		require.NoError(t, err)
		assert.Equal(t, "article title", rec.String("title"))
		assert.Equal(t, "Stephanie", rec.Record("photo").Record("publish_options").String("author"))
		assert.Equal(t, "photo title", rec.Record("gallery").Record("photo").String("title"))
	})

	t.Run("occurrences are merged", func(t *testing.T) {
		doc := `<list>
			<entry id="1"><name>one</name></entry>
			<entry><name>two</name><tag>x</tag><tag>y</tag></entry>
		</list>`
		rec, err := xmlbind.ParseAny([]byte(doc))
		require.NoError(t, err)
		entries := rec.Records("entry")
		require.Len(t, entries, 2)
		assert.Equal(t, "1", entries[0].String("id"))
		assert.False(t, entries[1].Has("id"))

		tags, ok := entries[0].Get("tag")
		require.True(t, ok)
		assert.Empty(t, tags)
		tags, _ = entries[1].Get("tag")
		assert.Equal(t, []string{"x", "y"}, tags)
	})

	t.Run("clashing names", func(t *testing.T) {
		doc := `<item id="a" my-id="b"><id>c</id><myId>d</myId>text</item>`
		rec, err := xmlbind.ParseAny([]byte(doc))
		require.NoError(t, err)
		out, err := json.Marshal(rec)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"a","my_id":"b","id_2":"c","my_id_2":"d","content":"text"}`, string(out))
	})

	t.Run("providers", func(t *testing.T) {
		for name, p := range providers() {
			t.Run(name, func(t *testing.T) {
				rec, err := xmlbind.ParseAny(loadFixture(t, "multiple_primitives.xml"), xmlbind.WithDocumentProvider(p))
				require.NoError(t, err)
				assert.Equal(t, "value", rec.String("name"))
			})
		}
	})

	t.Run("malformed document", func(t *testing.T) {
		_, err := xmlbind.ParseAny([]byte(`<a><b`))
		assert.ErrorIs(t, err, xmlbind.ErrDocument)
	})
}
