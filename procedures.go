package main

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"stonefall/server/logging"
)

// movementDuration is the wall-clock time a full forward (or reverse) pass
// takes at the procedure's speed.
func movementDuration(procedure *Procedure) float64 {
	rate := procedure.Speed * proceduresSpeedScale
	if rate <= 0 {
		return math.Inf(1)
	}
	return 1.0 / rate
}

// processElementLinks runs fn for every link whose cell index resolves to
// the given element.
func (m *Map) processElementLinks(kind ElementKind, index int, fn func(Link)) {
	for _, link := range m.data.Links {
		el := m.data.IndexAt(link.X, link.Y)
		if el.Kind == kind && el.Index == index {
			fn(link)
		}
	}
}

// ActivateProcedure unconditionally starts a procedure's cycle.
func (m *Map) ActivateProcedure(procedureNumber int, now time.Time) {
	if procedureNumber <= 0 || procedureNumber >= len(m.procedures) {
		return
	}
	state := &m.procedures[procedureNumber]
	state.stage = 0
	state.state = MovementStartWait
	state.lastStateChange = now

	m.publish(logging.EventProcedureActivated, logging.SeverityDebug, procedureRef(procedureNumber), nil)
}

// TryActivateProcedure is the player-facing trigger. Activation requires an
// unlocked procedure in its rest state and all required keys; the scripted
// text notifications go out either way.
func (m *Map) TryActivateProcedure(procedureNumber int, player *Player, now time.Time) bool {
	if procedureNumber <= 0 || procedureNumber >= len(m.procedures) {
		return false
	}
	procedure := &m.data.Procedures[procedureNumber]
	state := &m.procedures[procedureNumber]

	haveKeys := (!procedure.RedKeyRequired || player.HaveRedKey()) &&
		(!procedure.GreenKeyRequired || player.HaveGreenKey()) &&
		(!procedure.BlueKeyRequired || player.HaveBlueKey())

	activated := false
	if haveKeys && !state.locked && state.state == MovementNone {
		m.ActivateProcedure(procedureNumber, now)
		activated = true
	}

	if procedure.FirstMessage != 0 && !state.firstMessageOut {
		state.firstMessageOut = true
		m.addTextMessage(procedure.FirstMessage)
	}
	if procedure.LockMessage != 0 && (!haveKeys || state.locked) {
		m.addTextMessage(procedure.LockMessage)
	}
	if procedure.OnMessage != 0 {
		m.addTextMessage(procedure.OnMessage)
	}

	return activated
}

// ReturnProcedure sends an active procedure back toward its rest state. A
// forward movement flips in place so motion reverses smoothly instead of
// restarting.
func (m *Map) ReturnProcedure(procedureNumber int, now time.Time) {
	if procedureNumber <= 0 || procedureNumber >= len(m.procedures) {
		return
	}
	procedure := &m.data.Procedures[procedureNumber]
	state := &m.procedures[procedureNumber]

	switch state.state {
	case MovementNone, MovementReverse:
		// Nothing to undo.
	case MovementStartWait:
		state.state = MovementNone
		state.stage = 0
		state.lastStateChange = now
	case MovementInProgress:
		total := movementDuration(procedure)
		elapsed := now.Sub(state.lastStateChange).Seconds()
		remaining := total - elapsed
		if remaining < 0 || math.IsInf(total, 1) {
			remaining = 0
		}
		state.state = MovementReverse
		state.lastStateChange = now.Add(-time.Duration(remaining * float64(time.Second)))
	case MovementBackWait:
		state.state = MovementReverse
		state.stage = 0
		state.lastStateChange = now
	}
}

// ProcedureProcessShoot reacts to a shot hitting a shoot-linked element.
func (m *Map) ProcedureProcessShoot(procedureNumber int, now time.Time) {
	if procedureNumber <= 0 || procedureNumber >= len(m.procedures) {
		return
	}
	state := &m.procedures[procedureNumber]
	if state.locked || state.state != MovementNone {
		return
	}
	m.ActivateProcedure(procedureNumber, now)
}

// ProcedureProcessDestroy reacts to a destroy-linked model breaking. The
// procedure unlocks itself before activating.
func (m *Map) ProcedureProcessDestroy(procedureNumber int, now time.Time) {
	if procedureNumber <= 0 || procedureNumber >= len(m.procedures) {
		return
	}
	state := &m.procedures[procedureNumber]
	state.locked = false
	m.ActivateProcedure(procedureNumber, now)
}

func (m *Map) activateProcedureSwitches(procedure *Procedure, reverse bool, now time.Time) {
	for _, cell := range procedure.LinkedSwitches {
		el := m.data.IndexAt(cell.X, cell.Y)
		if el.Kind != ElementStaticModel {
			continue
		}
		model := &m.staticModels[el.Index]
		geom := m.modelGeometry(model.modelID)
		if reverse {
			model.animationState = AnimationSingleReverse
			if geom != nil && geom.FrameCount > 0 {
				model.animationStartFrame = geom.FrameCount - 1
			} else {
				model.animationStartFrame = 0
			}
		} else {
			model.animationState = AnimationSingle
			model.animationStartFrame = 0
		}
		model.animationStartTime = now
	}
}

func (m *Map) doProcedureImmediateCommands(procedure *Procedure, now time.Time) {
	for c := range procedure.Commands {
		command := &procedure.Commands[c]
		switch command.Kind {
		case CommandLock:
			target := int(command.Args[0])
			if target > 0 && target < len(m.procedures) {
				m.procedures[target].locked = true
			}
		case CommandUnlock:
			target := int(command.Args[0])
			if target > 0 && target < len(m.procedures) {
				m.procedures[target].locked = false
			}
		case CommandChange:
			m.doChangeCommand(command, now)
		case CommandExplode:
			m.doExplodeCommand(command, now)
		case CommandWind:
			m.paintWind(command, true)
		case CommandDeath:
			m.paintDeathField(command, true)
		default:
			// Movement commands are continuous; unknown tags are
			// tolerated so old level data keeps loading.
		}
	}
}

func (m *Map) doProcedureDeactivationCommands(procedure *Procedure) {
	for c := range procedure.Commands {
		if procedure.Commands[c].Kind == CommandNonstop {
			return
		}
	}
	for c := range procedure.Commands {
		command := &procedure.Commands[c]
		switch command.Kind {
		case CommandWind:
			m.paintWind(command, false)
		case CommandDeath:
			m.paintDeathField(command, false)
		}
	}
}

// doChangeCommand swaps the model at a target cell. Switch-like models
// freeze on their current frame after the swap.
func (m *Map) doChangeCommand(command *ActionCommand, now time.Time) {
	x, y := int(command.Args[0]), int(command.Args[1])
	el := m.data.IndexAt(x, y)
	if el.Kind != ElementStaticModel {
		return
	}
	model := &m.staticModels[el.Index]
	model.modelID = int(command.Args[2]) - changeCommandModelIDBase
	model.animationState = AnimationSingleFrame
	model.animationStartFrame = 0
	model.currentFrame = 0
	model.animationStartTime = now
}

// doExplodeCommand detonates the model at a target cell.
func (m *Map) doExplodeCommand(command *ActionCommand, now time.Time) {
	x, y := int(command.Args[0]), int(command.Args[1])
	el := m.data.IndexAt(x, y)
	if el.Kind != ElementStaticModel {
		return
	}
	m.destroyModel(el.Index, now)
}

// paintWind writes or erases a wind rectangle. Arguments are inclusive cell
// bounds followed by the wind vector.
func (m *Map) paintWind(command *ActionCommand, activate bool) {
	x0, y0 := int(command.Args[0]), int(command.Args[1])
	x1, y1 := int(command.Args[2]), int(command.Args[3])
	var wind windCell
	if activate {
		wind = windCell{int8(command.Args[4]), int8(command.Args[5])}
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if idx, ok := cellIndex(x, y); ok {
				m.windField[idx] = wind
			}
		}
	}
}

// paintDeathField writes or erases a damage rectangle. Arguments are
// inclusive cell bounds, the vertical band in map units, and the damage per
// field tick.
func (m *Map) paintDeathField(command *ActionCommand, activate bool) {
	x0, y0 := int(command.Args[0]), int(command.Args[1])
	x1, y1 := int(command.Args[2]), int(command.Args[3])
	var cell damageFieldCell
	if activate {
		cell = damageFieldCell{
			damage:  uint8(clamp(command.Args[6], 0, 255)),
			zBottom: uint8(clamp(command.Args[4]*deathFieldZScale, 0, 255)),
			zTop:    uint8(clamp(command.Args[5]*deathFieldZScale, 0, 255)),
		}
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if idx, ok := cellIndex(x, y); ok {
				m.deathField[idx] = cell
			}
		}
	}
}

// processProcedures advances every procedure's state machine by one tick.
func (m *Map) processProcedures(now time.Time) {
	for p := 1; p < len(m.procedures); p++ {
		procedure := &m.data.Procedures[p]
		state := &m.procedures[p]
		elapsed := now.Sub(state.lastStateChange).Seconds()

		switch state.state {
		case MovementNone:
			// Idle.
		case MovementStartWait:
			if elapsed >= procedure.StartDelayS {
				m.activateProcedureSwitches(procedure, false, now)
				m.doProcedureImmediateCommands(procedure, now)
				state.state = MovementInProgress
				state.stage = 0
				state.lastStateChange = now
			}
		case MovementInProgress:
			state.stage = elapsed * procedure.Speed * proceduresSpeedScale
			if state.stage >= 1 {
				m.doProcedureDeactivationCommands(procedure)
				state.state = MovementBackWait
				state.stage = 1
				state.lastStateChange = now
			}
		case MovementBackWait:
			if procedure.BackWaitS > 0 && elapsed >= procedure.BackWaitS {
				m.activateProcedureSwitches(procedure, true, now)
				state.state = MovementReverse
				state.stage = 0
				state.lastStateChange = now
			}
		case MovementReverse:
			state.stage = elapsed * procedure.Speed * proceduresSpeedScale
			if state.stage >= 1 {
				state.state = MovementNone
				state.stage = 0
				state.lastStateChange = now
			}
		}

		if procedure.EndDelayS > 0 && state.state != MovementNone &&
			now.Sub(state.lastStateChange).Seconds() >= procedure.EndDelayS {
			m.mapEndTriggered = true
		}
	}
}

// absoluteActionStage maps a procedure's state to the geometric stage its
// movement commands use: 0 at rest, 1 fully deployed.
func absoluteActionStage(state *ProcedureState) float64 {
	switch state.state {
	case MovementInProgress:
		return clamp(state.stage, 0, 1)
	case MovementBackWait:
		return 1
	case MovementReverse:
		return clamp(1-state.stage, 0, 1)
	default:
		return 0
	}
}

// commandTransform builds the accumulated matrix, vertical offset, and
// angle delta one procedure contributes at the given stage.
func commandTransform(procedure *Procedure, stage float64) (mgl64.Mat3, float64, float64) {
	acc := mgl64.Ident3()
	dz := 0.0
	dAngle := 0.0

	for c := range procedure.Commands {
		command := &procedure.Commands[c]
		switch command.Kind {
		case CommandMove:
			dx := command.Args[0] * commandsCoordsScale * stage
			dy := command.Args[1] * commandsCoordsScale * stage
			acc = mgl64.Translate2D(dx, dy).Mul3(acc)
		case CommandXMove:
			var dx, dy float64
			if stage < 0.5 {
				dx = command.Args[0] * commandsCoordsScale * stage * 2
			} else {
				dx = command.Args[0] * commandsCoordsScale
				dy = command.Args[1] * commandsCoordsScale * (stage - 0.5) * 2
			}
			acc = mgl64.Translate2D(dx, dy).Mul3(acc)
		case CommandYMove:
			var dx, dy float64
			if stage < 0.5 {
				dy = command.Args[1] * commandsCoordsScale * stage * 2
			} else {
				dy = command.Args[1] * commandsCoordsScale
				dx = command.Args[0] * commandsCoordsScale * (stage - 0.5) * 2
			}
			acc = mgl64.Translate2D(dx, dy).Mul3(acc)
		case CommandRotate:
			cx := command.Args[0] * commandsCoordsScale
			cy := command.Args[1] * commandsCoordsScale
			angle := command.Args[2] * math.Pi / 180 * stage
			step := mgl64.Translate2D(cx, cy).
				Mul3(mgl64.HomogRotate2D(angle)).
				Mul3(mgl64.Translate2D(-cx, -cy))
			acc = step.Mul3(acc)
			dAngle += angle
		case CommandUp:
			dz += command.Args[0] * commandsCoordsScale * stage
		}
	}

	return acc, dz, dAngle
}

// moveMapObjects recomputes every dynamic wall and model pose. Transforms
// from all active procedures accumulate per object, then apply once from
// the definition's base pose. Composition across procedures stays
// order-dependent on purpose to match the observed behavior of the level
// scripts.
func (m *Map) moveMapObjects(now time.Time) {
	for w := range m.dynamicWalls {
		m.dynamicWalls[w].transform.clear()
	}
	for i := range m.staticModels {
		m.staticModels[i].transform.clear()
		m.staticModels[i].transformAngle = 0
	}

	for p := 1; p < len(m.procedures); p++ {
		procedure := &m.data.Procedures[p]
		state := &m.procedures[p]
		stage := absoluteActionStage(state)

		mat, dz, dAngle := commandTransform(procedure, stage)

		for _, link := range m.data.Links {
			if link.ProcID != p {
				continue
			}
			el := m.data.IndexAt(link.X, link.Y)
			switch el.Kind {
			case ElementDynamicWall:
				wall := &m.dynamicWalls[el.Index]
				wall.transform.accumulate(mat)
				wall.transform.dZ += dz
			case ElementStaticModel:
				model := &m.staticModels[el.Index]
				model.transform.accumulate(mat)
				model.transform.dZ += dz
				model.transformAngle += dAngle
			}
		}
	}

	for w := range m.dynamicWalls {
		template := &m.data.DynamicWalls[w]
		wall := &m.dynamicWalls[w]
		for j := 0; j < 2; j++ {
			wall.verts[j] = wall.transform.apply(template.Verts[j])
		}
		wall.z = wall.transform.dZ
	}

	for i := range m.staticModels {
		placement := &m.data.StaticModels[i]
		model := &m.staticModels[i]
		xy := model.transform.apply(placement.Pos)
		model.pos = mgl64.Vec3{xy.X(), xy.Y(), model.baseZ + model.transform.dZ}
		model.angle = placement.Angle + model.transformAngle
	}
}

// processStaticModelsAnimation advances model frames from wall-clock time.
func (m *Map) processStaticModelsAnimation(now time.Time) {
	for i := range m.staticModels {
		model := &m.staticModels[i]
		geom := m.modelGeometry(model.modelID)
		if geom == nil || geom.FrameCount <= 0 {
			model.currentFrame = 0
			continue
		}

		steps := int(now.Sub(model.animationStartTime).Seconds() * animationsFramesPerSecond)
		if steps < 0 {
			steps = 0
		}

		switch model.animationState {
		case AnimationLoop:
			model.currentFrame = (model.animationStartFrame + steps) % geom.FrameCount
		case AnimationSingle:
			frame := model.animationStartFrame + steps
			if frame >= geom.FrameCount-1 {
				frame = geom.FrameCount - 1
				model.animationState = AnimationSingleFrame
				model.animationStartFrame = frame
			}
			model.currentFrame = frame
		case AnimationSingleReverse:
			frame := model.animationStartFrame - steps
			if frame <= 0 {
				frame = 0
				model.animationState = AnimationSingleFrame
				model.animationStartFrame = 0
			}
			model.currentFrame = frame
		case AnimationSingleFrame:
			model.currentFrame = model.animationStartFrame
		}
	}
}

// destroyModel breaks a model: destruction effects go out, the model id
// advances to its broken variant, and health resets from the new
// description. Destroy links fire so scripted consequences follow.
func (m *Map) destroyModel(modelIndex int, now time.Time) {
	if modelIndex < 0 || modelIndex >= len(m.staticModels) {
		return
	}
	model := &m.staticModels[modelIndex]

	m.emitModelDestructionEffects(modelIndex)

	model.modelID++
	if desc := m.modelDescription(model.modelID); desc != nil {
		model.health = desc.BreakLimit
	} else {
		model.health = 0
	}

	m.processElementLinks(ElementStaticModel, modelIndex, func(link Link) {
		if link.Kind == LinkDestroy {
			m.ProcedureProcessDestroy(link.ProcID, now)
		}
	})

	m.publish(logging.EventModelDestroyed, logging.SeverityDebug,
		logging.EntityRef{Kind: logging.EntityKindModel}, map[string]any{"modelIndex": modelIndex})
}

// emitModelDestructionEffects plays the breakage visuals and sound of the
// model's current description.
func (m *Map) emitModelDestructionEffects(modelIndex int) {
	model := &m.staticModels[modelIndex]
	desc := m.modelDescription(model.modelID)
	if desc == nil {
		return
	}

	pos := model.pos
	if geom := m.modelGeometry(model.modelID); geom != nil {
		z := model.pos.Z() + (geom.ZMin+geom.ZMax)*0.5 + desc.BlowZShift
		pos = mgl64.Vec3{model.pos.X(), model.pos.Y(), z}
	}

	if desc.BlowEffect != 0 {
		m.AddParticleEffect(pos, ParticleEffectFirstBlow+ParticleEffect(desc.BlowEffect))
	}
	if desc.BreakSound != 0 {
		m.PlayMapEventSound(pos, uint16(desc.BreakSound))
	}
}
