// pkg/entity/renderer.go
package entity

// Renderer handles rendering simulated bodies
type Renderer interface {
	RenderBlackHole(hole *BlackHole)
	RenderAsteroid(asteroid *Asteroid)
	RenderCrystal(crystal *Crystal)
	RenderShip(ship *Ship)
	RenderDrone(drone *Drone)
	Clear()
	Present()
}
