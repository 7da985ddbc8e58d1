package ui

import "github.com/rivo/tview"

// Pages is a stack-based page manager wrapping tview.Pages.
// Pages registered with a Component are started when shown. Pushed pages
// overlay the one below without stopping it; Pop and Reset stop what they
// remove.
type Pages struct {
	*tview.Pages
	stack      []string
	components map[string]Component
	onChange   func(stack []string)
}

// NewPages creates a new stack-based page manager.
func NewPages() *Pages {
	return &Pages{
		Pages:      tview.NewPages(),
		components: make(map[string]Component),
	}
}

// Add registers a hidden page. c may be nil.
func (p *Pages) Add(name string, item tview.Primitive, c Component) {
	p.AddPage(name, item, true, false)
	if c != nil {
		p.components[name] = c
	}
}

// Component returns the component registered for name.
func (p *Pages) Component(name string) Component {
	return p.components[name]
}

// SetOnChange sets a callback that fires when the stack changes.
func (p *Pages) SetOnChange(fn func(stack []string)) {
	p.onChange = fn
}

// Push adds a page to the top of the stack and shows it.
func (p *Pages) Push(name string) {
	if p.Current() == name {
		return
	}
	if len(p.stack) > 0 {
		p.HidePage(p.stack[len(p.stack)-1])
	}
	p.stack = append(p.stack, name)
	p.ShowPage(name)
	p.SendToFront(name)
	p.start(name)
	p.notify()
}

// Pop removes the top page and shows the previous one. The bottom page is
// never popped. Returns the name of the popped page, or empty.
func (p *Pages) Pop() string {
	if len(p.stack) < 2 {
		return ""
	}
	top := p.stack[len(p.stack)-1]
	p.HidePage(top)
	p.stop(top)
	p.stack = p.stack[:len(p.stack)-1]
	current := p.stack[len(p.stack)-1]
	p.ShowPage(current)
	p.SendToFront(current)
	p.notify()
	return top
}

// Current returns the name of the current (top) page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Stack returns a copy of the current page stack.
func (p *Pages) Stack() []string {
	s := make([]string, len(p.stack))
	copy(s, p.stack)
	return s
}

// Depth returns the current stack depth.
func (p *Pages) Depth() int {
	return len(p.stack)
}

// Reset clears the stack and shows only the given page. Resetting to the
// page already alone on the stack does nothing.
func (p *Pages) Reset(name string) {
	if len(p.stack) == 1 && p.stack[0] == name {
		return
	}
	for i := len(p.stack) - 1; i >= 0; i-- {
		p.HidePage(p.stack[i])
		p.stop(p.stack[i])
	}
	p.stack = []string{name}
	p.ShowPage(name)
	p.SendToFront(name)
	p.start(name)
	p.notify()
}

func (p *Pages) start(name string) {
	if c := p.components[name]; c != nil {
		c.Start()
	}
}

func (p *Pages) stop(name string) {
	if c := p.components[name]; c != nil {
		c.Stop()
	}
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Stack())
	}
}
