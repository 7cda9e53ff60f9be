package main

func inc(x int) int {
	return x + 1
}

func loops() int {
	n := 0
outer:
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if j == 1 {
				continue
			}
			if i == 1 {
				break outer
			}
			n += inc(j)
		}
	}
	return n
}

func classify(x int) string {
	switch x {
	case 1:
		return "one"
	default:
		return "other"
	}
}

func recovered() (err any) {
	defer func() {
		err = recover()
	}()
	panic("boom")
}

func count(yield func(int) bool) {
	for i := range 2 {
		if !yield(i) {
			return
		}
	}
}

func assert(v any) int {
	n := v.(int)
	return n
}

func run() {
	inc(41)
	loops()
	classify(1)
	recovered()
	for v := range count {
		_ = v
	}
	assert(7)
}
