package main

import "testing"

func TestDoctorPassesWithStubEngine(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "Score engine")
	requireContains(t, out, "stub-engine 1.0")
	requireContains(t, out, "[OK]")
}

func TestDoctorFailsWithoutEngine(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Engine.Binary = "omrdiff-missing-engine"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err == nil {
		t.Fatal("expected doctor to fail")
	}
	requireContains(t, out, "[ERROR]")
}
