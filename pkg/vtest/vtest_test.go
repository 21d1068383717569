package vtest_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vango-dev/kinesis/pkg/controller"
	"github.com/vango-dev/kinesis/pkg/vdom"
	"github.com/vango-dev/kinesis/pkg/vtest"
)

func clicker() vdom.Component {
	return vdom.Stateful("Clicker",
		func() int { return 0 },
		func(n int) *vdom.VNode {
			return vdom.Div(
				vdom.Span(vdom.ID("label"), vdom.Dyn(vdom.Class(fmt.Sprintf("n%d", n))), vdom.DynTextf("%d clicks", n)),
				vdom.Button(vdom.ID("more"), vdom.OnClick("more"), "More"),
				vdom.Button(vdom.ID("fail"), vdom.OnClick("fail"), "Fail"),
			)
		},
		func(n int, ev vdom.Event) (int, error) {
			if ev.Handler == "fail" {
				return n, errors.New("refused")
			}
			return n + 1, nil
		})
}

func TestHarness(t *testing.T) {
	h := vtest.Mount(t, clicker())
	h.ExpectText("span", "0 clicks")
	h.ExpectAttribute("label", "class", "n0")

	h.Click("more")
	h.Click("more")
	h.ExpectText("span", "2 clicks")
	h.ExpectAttribute("label", "class", "n2")
	h.ExpectContains(`<button id="more">More</button>`)
	h.ExpectNotContains("0 clicks")

	if err := h.Fire(h.ByID("fail"), "click", ""); err == nil || err.Error() != "refused" {
		t.Errorf("Fire(fail) = %v, want the handler's error", err)
	}
	h.ExpectText("span", "2 clicks")

	if !h.Has("more") || h.Has("less") {
		t.Error("Has reports the wrong elements")
	}
	if got := h.Controller().State(); got != 2 {
		t.Errorf("State() = %v, want 2", got)
	}
	if h.Controller().Status() != controller.Mounted {
		t.Error("harness is not mounted")
	}
}
