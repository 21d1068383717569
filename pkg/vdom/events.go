package vdom

// On binds handler to an arbitrary event kind.
func On(event, handler string) Binding {
	return Binding{Event: event, Handler: handler}
}

// Mouse events

// OnClick binds a click handler.
func OnClick(handler string) Binding { return On("click", handler) }

// OnDblClick binds a double-click handler.
func OnDblClick(handler string) Binding { return On("dblclick", handler) }

// OnMouseEnter binds a mouseenter handler.
func OnMouseEnter(handler string) Binding { return On("mouseenter", handler) }

// OnMouseLeave binds a mouseleave handler.
func OnMouseLeave(handler string) Binding { return On("mouseleave", handler) }

// Keyboard events

// OnKeyDown binds a keydown handler.
func OnKeyDown(handler string) Binding { return On("keydown", handler) }

// Form events

// OnInput binds an input handler (fired when value changes).
func OnInput(handler string) Binding { return On("input", handler) }

// OnChange binds a change handler (fired when value is committed).
func OnChange(handler string) Binding { return On("change", handler) }

// OnSubmit binds a form submit handler.
func OnSubmit(handler string) Binding { return On("submit", handler) }

// OnFocus binds a focus handler.
func OnFocus(handler string) Binding { return On("focus", handler) }

// OnBlur binds a blur handler.
func OnBlur(handler string) Binding { return On("blur", handler) }
