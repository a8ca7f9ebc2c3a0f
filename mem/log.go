package mem

import "fmt"

// kprintf is the package's diagnostic output hook. It defaults to fmt.Printf,
// matching biscuit's own mem.Phys_init and the original dumbvm.c's kprintf
// calls. It is a variable so it can be replaced.
var kprintf = fmt.Printf
