// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package names_test

import (
	"testing"

	"code.hybscloud.com/fabric/internal/names"
)

func TestRegisterLookupCaseInsensitive(t *testing.T) {
	d := names.New(16)
	d.Register("Sensor-A", 7)

	if id, ok := d.Lookup("sensor-a"); !ok || id != 7 {
		t.Fatalf("Lookup(sensor-a): got id=%d ok=%v, want 7,true", id, ok)
	}
	if id, ok := d.Lookup("SENSOR-A"); !ok || id != 7 {
		t.Fatalf("Lookup(SENSOR-A): got id=%d ok=%v, want 7,true", id, ok)
	}
}

func TestLookupMiss(t *testing.T) {
	d := names.New(16)
	if _, ok := d.Lookup("nope"); ok {
		t.Fatal("Lookup(nope): want ok=false")
	}
}

func TestUnregisterRemovesBinding(t *testing.T) {
	d := names.New(16)
	d.Register("a", 1)
	d.Unregister("A")
	if _, ok := d.Lookup("a"); ok {
		t.Fatal("Lookup after Unregister: want ok=false")
	}
}

func TestDoubleRegisterPanics(t *testing.T) {
	d := names.New(16)
	d.Register("a", 1)
	defer func() {
		if recover() == nil {
			t.Fatal("second Register: want panic")
		}
	}()
	d.Register("A", 2)
}
