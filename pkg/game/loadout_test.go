package game

import "testing"

// TestWeaponCapAndLevels 武器种类上限与等级上限
func TestWeaponCapAndLevels(t *testing.T) {
	lo := NewLoadout()

	for _, id := range []string{"pistol", "smg", "shotgun"} {
		if !lo.GrantWeapon(id) {
			t.Fatalf("granting %s must succeed", id)
		}
	}
	if lo.GrantWeapon("flamer") {
		t.Error("fourth unique weapon must be rejected")
	}

	// 已持有武器仍可升级
	for level := 2; level <= MaxWeaponLevel; level++ {
		if !lo.GrantWeapon("pistol") {
			t.Fatalf("upgrade to level %d must succeed", level)
		}
	}
	if lo.GrantWeapon("pistol") {
		t.Error("upgrade beyond max level must fail")
	}
	if lo.WeaponLevel("pistol") != MaxWeaponLevel {
		t.Errorf("pistol level: got %d, want %d", lo.WeaponLevel("pistol"), MaxWeaponLevel)
	}
}

// TestPassiveCapAndLevels 被动种类上限与等级上限
func TestPassiveCapAndLevels(t *testing.T) {
	lo := NewLoadout()

	for _, id := range []string{"armor", "boots", "magnet"} {
		if !lo.GrantPassive(id) {
			t.Fatalf("granting %s must succeed", id)
		}
	}
	if lo.GrantPassive("scope") {
		t.Error("fourth unique passive must be rejected")
	}

	for level := 2; level <= MaxPassiveLevel; level++ {
		if !lo.GrantPassive("armor") {
			t.Fatalf("upgrade to level %d must succeed", level)
		}
	}
	if lo.GrantPassive("armor") {
		t.Error("upgrade beyond max level must fail")
	}
}

// TestAllowedWeaponSet 空白名单不限制，非空白名单过滤
func TestAllowedWeaponSet(t *testing.T) {
	lo := NewLoadout()

	if !lo.WeaponAllowed("anything") {
		t.Error("empty allowed set must not restrict")
	}

	lo.AllowedWeapons["pistol"] = true
	if !lo.WeaponAllowed("pistol") {
		t.Error("allowed weapon rejected")
	}
	if lo.WeaponAllowed("smg") {
		t.Error("weapon outside the allowed set must be rejected")
	}
}
