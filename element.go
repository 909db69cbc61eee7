package calce2e

import (
	"context"
	"errors"

	"github.com/go-rod/calce2e/lib/cdp"
	"github.com/go-rod/calce2e/lib/js"
	"github.com/go-rod/calce2e/lib/utils"
	"github.com/tidwall/gjson"
)

// element is a remote object of a DOM element
type element struct {
	page     *page
	selector string
	objectID string
}

// element polls until the selector matches, the first match is used
func (p *page) element(ctx context.Context, selector string) (*element, error) {
	var objectID string

	err := utils.Retry(ctx, p.sleeper(), func() (bool, error) {
		res, err := p.call(ctx, "Runtime.evaluate", object{
			"expression": js.Query(selector),
		})
		if err != nil {
			// the page is navigating
			if errors.Is(err, cdp.ErrCtxDestroyed) || errors.Is(err, cdp.ErrCtxNotFound) {
				return false, nil
			}
			return true, err
		}

		if res.Get("exceptionDetails").Exists() {
			return true, errors.New(res.Get("exceptionDetails.exception.description").String())
		}

		objectID = res.Get("result.objectId").String()
		return objectID != "", nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Code: ErrElementNotFound, Details: selector, Err: err}
		}
		return nil, err
	}

	return &element{page: p, selector: selector, objectID: objectID}, nil
}

// eval the function with the element as this
func (el *element) eval(ctx context.Context, fn *js.Function) (gjson.Result, error) {
	res, err := el.page.call(ctx, "Runtime.callFunctionOn", object{
		"objectId":            el.objectID,
		"functionDeclaration": fn.Definition,
		"returnByValue":       true,
		"awaitPromise":        true,
	})
	if err != nil {
		return res, err
	}

	if res.Get("exceptionDetails").Exists() {
		return res, errors.New(fn.Name + ": " + res.Get("exceptionDetails.exception.description").String())
	}
	return res.Get("result.value"), nil
}

func (el *element) scrollIntoView(ctx context.Context) error {
	_, err := el.page.call(ctx, "DOM.scrollIntoViewIfNeeded", object{"objectId": el.objectID})
	return err
}

func (el *element) click(ctx context.Context) error {
	err := el.scrollIntoView(ctx)
	if err != nil {
		return err
	}

	center, err := el.eval(ctx, js.Rect)
	if err != nil {
		return err
	}

	return el.page.clickAt(ctx, center.Get("x").Float(), center.Get("y").Float())
}

// Click the first element matches the selector
func (p *page) Click(ctx context.Context, selector string) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.click(ctx)
}

// Focus the first element matches the selector
func (p *page) Focus(ctx context.Context, selector string) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	_, err = el.eval(ctx, js.Focus)
	return err
}

// Value of the first element matches the selector
func (p *page) Value(ctx context.Context, selector string) (string, error) {
	el, err := p.element(ctx, selector)
	if err != nil {
		return "", err
	}

	v, err := el.eval(ctx, js.Value)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
