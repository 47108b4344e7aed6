package engine

import "testing"

func TestSceneAddGameObject(t *testing.T) {
	scene := NewScene("Test")
	obj := NewGameObject("Cloth")

	scene.AddGameObject(obj)

	if len(scene.GameObjects) != 1 {
		t.Errorf("Expected 1 GameObject, got %d", len(scene.GameObjects))
	}

	if scene.GameObjects[0] != obj {
		t.Error("GameObject not added to scene")
	}

	if obj.Scene != scene {
		t.Error("GameObject.Scene not set")
	}
}

func TestSceneRemoveGameObject(t *testing.T) {
	scene := NewScene("Test")
	obj1 := NewGameObject("Sphere")
	obj2 := NewGameObject("Ground")

	scene.AddGameObject(obj1)
	scene.AddGameObject(obj2)

	scene.RemoveGameObject(obj1)

	if len(scene.GameObjects) != 1 {
		t.Errorf("Expected 1 GameObject after removal, got %d", len(scene.GameObjects))
	}

	if scene.GameObjects[0] != obj2 {
		t.Error("Wrong GameObject removed")
	}

	if obj1.Scene != nil {
		t.Error("Removed GameObject should have nil scene")
	}
}

func TestSceneFindByName(t *testing.T) {
	scene := NewScene("Test")
	obj := NewGameObject("UniqueSphere")

	scene.AddGameObject(obj)

	if scene.FindByName("UniqueSphere") != obj {
		t.Error("FindByName failed")
	}

	if scene.FindByName("Missing") != nil {
		t.Error("FindByName should return nil for missing name")
	}
}

func TestSceneFindByTag(t *testing.T) {
	scene := NewScene("Test")
	a := NewGameObject("A")
	a.Tags = []string{"obstacle"}
	b := NewGameObject("B")
	c := NewGameObject("C")
	c.Tags = []string{"obstacle"}

	scene.AddGameObject(a)
	scene.AddGameObject(b)
	scene.AddGameObject(c)

	found := scene.FindByTag("obstacle")
	if len(found) != 2 {
		t.Fatalf("Expected 2 tagged objects, got %d", len(found))
	}
	if found[0] != a || found[1] != c {
		t.Error("FindByTag should preserve scene order")
	}
}

func TestSceneFindComponents(t *testing.T) {
	scene := NewScene("Test")
	a := NewGameObject("A")
	ca := &tickCounter{}
	a.AddComponent(ca)
	b := NewGameObject("B")
	b.AddComponent(&BaseComponent{})
	c := NewGameObject("C")
	cc := &tickCounter{}
	c.AddComponent(cc)

	scene.AddGameObject(a)
	scene.AddGameObject(b)
	scene.AddGameObject(c)

	found := FindComponents[*tickCounter](scene)
	if len(found) != 2 {
		t.Fatalf("Expected 2 components, got %d", len(found))
	}
	if found[0] != ca || found[1] != cc {
		t.Error("FindComponents should preserve scene order")
	}
}

func TestSceneFixedUpdate(t *testing.T) {
	scene := NewScene("Test")
	obj := NewGameObject("A")
	comp := &tickCounter{}
	obj.AddComponent(comp)
	scene.AddGameObject(obj)

	scene.FixedUpdate(0.01)
	scene.FixedUpdate(0.01)

	if comp.fixed != 2 {
		t.Errorf("Expected 2 fixed updates, got %d", comp.fixed)
	}
	if comp.lastDt != 0.01 {
		t.Errorf("Expected fixed dt 0.01, got %v", comp.lastDt)
	}
}

func TestEventWithArg(t *testing.T) {
	var ev EventWithArg[int]
	sum := 0
	ev.AddListener(func(v int) { sum += v })
	ev.AddListener(func(v int) { sum += 2 * v })
	ev.AddListener(nil)

	ev.Invoke(3)

	// the nil listener is ignored
	if sum != 9 {
		t.Errorf("Expected 9, got %d", sum)
	}

	var plain Event
	fired := false
	plain.AddListener(func() { fired = true })
	plain.Invoke()
	if !fired {
		t.Error("Event listener should fire")
	}
}
