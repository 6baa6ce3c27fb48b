package models

import "fmt"

// OrderStage represents a step in the manufacturing pipeline
type OrderStage string

const (
	StageDesignProposal      OrderStage = "DesignProposal"      // Initial design under review
	StageProofApproval       OrderStage = "ProofApproval"       // Client approving proofs
	StageMeasurements        OrderStage = "Measurements"        // Collecting performer measurements
	StageProductionPlanning  OrderStage = "ProductionPlanning"  // Scheduling materials and labor
	StageCutting             OrderStage = "Cutting"             // Fabric cutting
	StageSewing              OrderStage = "Sewing"              // Assembly
	StageQualityControl      OrderStage = "QualityControl"      // QC review
	StageFinishing           OrderStage = "Finishing"           // Trim, embellishment, pressing
	StageFinalInspection     OrderStage = "FinalInspection"     // Final sign-off before packing
	StagePackaging           OrderStage = "Packaging"           // Boxing for shipment
	StageShippingPreparation OrderStage = "ShippingPreparation" // Labels, carrier booking
	StageShip                OrderStage = "Ship"                // Handed to carrier
	StageDelivery            OrderStage = "Delivery"            // Received by client
)

// StageSequence is the canonical pipeline order. Transitions are only valid
// toward a later position in this slice.
var StageSequence = []OrderStage{
	StageDesignProposal,
	StageProofApproval,
	StageMeasurements,
	StageProductionPlanning,
	StageCutting,
	StageSewing,
	StageQualityControl,
	StageFinishing,
	StageFinalInspection,
	StagePackaging,
	StageShippingPreparation,
	StageShip,
	StageDelivery,
}

var stageIndex = func() map[OrderStage]int {
	m := make(map[OrderStage]int, len(StageSequence))
	for i, s := range StageSequence {
		m[s] = i
	}
	return m
}()

// StageIndex returns the position of a stage in the pipeline, or -1 if the
// stage is not recognized.
func StageIndex(stage OrderStage) int {
	if i, ok := stageIndex[stage]; ok {
		return i
	}
	return -1
}

// IsValidStage checks whether the stage is one of the canonical pipeline stages
func IsValidStage(stage OrderStage) bool {
	_, ok := stageIndex[stage]
	return ok
}

// IsTerminalStage checks if the stage is the last stage of the pipeline
func IsTerminalStage(stage OrderStage) bool {
	return stage == StageSequence[len(StageSequence)-1]
}

// IsForwardTransition reports whether moving from one stage to another goes
// toward a later pipeline position. Unknown stages are never forward.
func IsForwardTransition(from, to OrderStage) bool {
	fromIdx := StageIndex(from)
	toIdx := StageIndex(to)
	if fromIdx < 0 || toIdx < 0 {
		return false
	}
	return toIdx > fromIdx
}

// NextStages returns the stages an order may legally move to from the current
// stage. Forward skips are allowed, so this is every later stage.
func NextStages(current OrderStage) []OrderStage {
	idx := StageIndex(current)
	if idx < 0 || idx == len(StageSequence)-1 {
		return []OrderStage{}
	}
	next := make([]OrderStage, len(StageSequence)-idx-1)
	copy(next, StageSequence[idx+1:])
	return next
}

// ParseStage returns an error if the value is not a recognized stage
func ParseStage(value string) (OrderStage, error) {
	stage := OrderStage(value)
	if !IsValidStage(stage) {
		return "", fmt.Errorf("unrecognized stage %q", value)
	}
	return stage, nil
}

// DisplayName returns a human-readable name for the stage
func (s OrderStage) DisplayName() string {
	switch s {
	case StageDesignProposal:
		return "Design Proposal"
	case StageProofApproval:
		return "Proof Approval"
	case StageMeasurements:
		return "Measurements"
	case StageProductionPlanning:
		return "Production Planning"
	case StageCutting:
		return "Cutting"
	case StageSewing:
		return "Sewing"
	case StageQualityControl:
		return "Quality Control"
	case StageFinishing:
		return "Finishing"
	case StageFinalInspection:
		return "Final Inspection"
	case StagePackaging:
		return "Packaging"
	case StageShippingPreparation:
		return "Shipping Preparation"
	case StageShip:
		return "Ship"
	case StageDelivery:
		return "Delivery"
	default:
		return string(s)
	}
}
