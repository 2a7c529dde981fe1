package main

// @generated from vm_test.go

//go:generate go run scripts/gen_vm_expects.go -- vm_test.go vm_expects_test.go

import (
	"time"

	"github.com/jcorbin/cellforth/internal/cell"
)

func withVMOptions(opts ...VMOption) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.withOptions(opts...)
	}
}

func withVMStack(values ...cell.Cell) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.withStack(values...)
	}
}

func withVMMemLimit(limit uint) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.withMemLimit(limit)
	}
}

func withVMInput(input string) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.withInput(input)
	}
}

func withVMNamedInput(name string, input string) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.withNamedInput(name, input)
	}
}

func withVMTimeout(timeout time.Duration) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.withTimeout(timeout)
	}
}

func expectVMError(err error) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.expectError(err)
	}
}

func expectVMStack(values ...cell.Cell) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.expectStack(values...)
	}
}

func expectVMStackFormat(texts ...string) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.expectStackFormat(texts...)
	}
}

func expectVMRStack(values ...cell.Cell) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.expectRStack(values...)
	}
}

func expectVMMemAt(addr uint, values ...cell.Cell) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.expectMemAt(addr, values...)
	}
}

func expectVMWord(name string, body ...string) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.expectWord(name, body...)
	}
}

func expectVMUndefined(name string) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.expectUndefined(name)
	}
}

func expectVMHere(value int) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.expectHere(value)
	}
}

func expectVMState(value int) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.expectState(value)
	}
}

func expectVMOutput(output string) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.expectOutput(output)
	}
}

func expectVMReports(reports ...string) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.expectReports(reports...)
	}
}

func expectVMDump(dump string) func(vmTestCase) vmTestCase {
	return func(vmt vmTestCase) vmTestCase {
		return vmt.expectDump(dump)
	}
}
