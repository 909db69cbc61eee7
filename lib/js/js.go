// Package js holds the javascript snippets the harness evaluates in the page.
package js

import (
	"encoding/json"
	"fmt"
)

// Function definition
type Function struct {
	Name       string
	Definition string
}

// Query returns the expression that evaluates to the first element matches the css selector, or null
func Query(selector string) string {
	b, _ := json.Marshal(selector)
	return fmt.Sprintf("document.querySelector(%s)", b)
}

// PageState is the expression of the url and the document.readyState of the page
const PageState = `({ url: location.href, readyState: document.readyState })`

// Rect returns the center of the element in the viewport
var Rect = &Function{
	Name: "rect",
	Definition: `function () {
	const r = this.getBoundingClientRect()
	return { x: r.left + r.width / 2, y: r.top + r.height / 2 }
}`,
}

// Focus the element
var Focus = &Function{
	Name:       "focus",
	Definition: `function () { this.focus() }`,
}

// Value of the element, textContent is used when the element has no value property
var Value = &Function{
	Name: "value",
	Definition: `function () {
	if (this.value !== undefined && this.value !== null) return String(this.value)
	return this.textContent
}`,
}
