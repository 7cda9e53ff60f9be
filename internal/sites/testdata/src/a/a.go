package a

import "log"

var global = any(1).(int)

func use(v any) {}

func Seq(n int) func(yield func(int) bool) {
	return func(yield func(int) bool) { // want "return probe site"
		for i := range n {
			if !yield(i) { // want "yield probe site"
				return // want "return probe site"
			}
		}
	}
}

func Flow(v any) (res int) {
	defer func() {
		if r := recover(); r != nil { // want "var-decl probe site" "catch probe site"
			res = -1
		}
	}()

	var x, _ = v.(int) // want "var-decl probe site" "assertion probe site"
	y := x + 1         // want "var-decl probe site"
	use(y)             // want "exec probe site"

outer:
	for i := 0; i < 3; i++ { // want "var-decl probe site"
		switch i { // want "switch probe site"
		case 1:
			continue outer // want "continue probe site"
		case 2:
			break outer // want "break probe site"
		}
	}

	if y > 10 {
		panic("too big") // want "throw probe site"
	}
	if y > 5 {
		log.Panic(y) // want "throw probe site"
	}

	return y // want "return probe site"
}
