package xmlbind_test

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/xmlbind"
)

func ExampleParse() {
	type Location struct {
		Place  string   `xml:"city|state|country"`
		Images []string `xml:"image"`
	}

	doc := []byte(`<address>
		<city></city>
		<state>Lower Saxony</state>
		<image>front.jpg</image>
		<image>back.jpg</image>
	</address>`)

	loc, err := xmlbind.Parse[Location](doc, xmlbind.WithRegistry(xmlbind.NewRegistry()))
	if err != nil {
		panic(err)
	}
	fmt.Println(loc.Place)
	fmt.Println(loc.Images)
	// Output:
	// Lower Saxony
	// [front.jpg back.jpg]
}

func ExampleRegistry_LoadYAML() {
	reg := xmlbind.NewRegistry()
	_, err := reg.LoadYAML([]byte(`
types:
  country:
    tag: country
    attributes:
      - {name: code, type: string}
    content: {name: name, type: string}
`))
	if err != nil {
		panic(err)
	}

	rec, err := reg.ParseRecord([]byte(`<address><country code="de">Germany</country></address>`), "country")
	if err != nil {
		panic(err)
	}
	out, _ := json.Marshal(rec)
	fmt.Println(string(out))
	// Output:
	// {"code":"de","name":"Germany"}
}

func ExampleWithNamespaces() {
	type Shipment struct {
		Method string `xml:"ship:method,attr"`
		Place  string `xml:"ship:city|ship:town"`
	}

	doc := []byte(`<shipment xmlns:s="urn:shipping" s:method="express">
		<town>Springfield</town>
		<s:city></s:city>
		<s:town>Shelbyville</s:town>
	</shipment>`)

	v, err := xmlbind.Parse[Shipment](doc,
		xmlbind.WithRegistry(xmlbind.NewRegistry()),
		xmlbind.WithNamespaces(map[string]string{"ship": "urn:shipping"}),
	)
	if err != nil {
		panic(err)
	}
	fmt.Println(v.Method)
	fmt.Println(v.Place)
	// Output:
	// express
	// Shelbyville
}
