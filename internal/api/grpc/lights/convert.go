package lights

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/lightshow/internal/domain/lights"
)

// Request and response field names.
const (
	fieldTarget         = "target"
	fieldProgram        = "program"
	fieldValue          = "value"
	fieldColorPrograms  = "color_programs"
	fieldScreenPrograms = "screen_programs"
)

// Programs lists the program names a client may assign.
type Programs struct {
	// Color are the programs that can drive the ring and strip.
	Color []string `json:"color"`
	// Screen are the programs that can drive the screen.
	Screen []string `json:"screen"`
}

// stateToProto encodes a snapshot with the field names of its JSON tags.
func stateToProto(state lights.State) (*structpb.Struct, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	var out structpb.Struct
	if err = protojson.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	return &out, nil
}

// StateFromProto decodes a snapshot produced by the server.
func StateFromProto(in *structpb.Struct) (lights.State, error) {
	var state lights.State

	data, err := protojson.Marshal(in)
	if err != nil {
		return state, fmt.Errorf("decode state: %w", err)
	}

	if err = json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("decode state: %w", err)
	}

	return state, nil
}

// programsToProto encodes the program lists.
func programsToProto(programs Programs) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		fieldColorPrograms:  toAnySlice(programs.Color),
		fieldScreenPrograms: toAnySlice(programs.Screen),
	})
}

// ProgramsFromProto decodes the program lists.
func ProgramsFromProto(in *structpb.Struct) Programs {
	return Programs{
		Color:  stringList(in.GetFields()[fieldColorPrograms]),
		Screen: stringList(in.GetFields()[fieldScreenPrograms]),
	}
}

// setProgramRequest builds a SetProgram request.
func setProgramRequest(target lights.Target, program string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldTarget:  structpb.NewStringValue(target.String()),
		fieldProgram: structpb.NewStringValue(program),
	}}
}

// setBrightnessRequest builds a SetBrightness request.
func setBrightnessRequest(target lights.Target, value float64) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldTarget: structpb.NewStringValue(target.String()),
		fieldValue:  structpb.NewNumberValue(value),
	}}
}

// targetField reads and parses the target of a request.
func targetField(req *structpb.Struct) (lights.Target, error) {
	return lights.ParseTarget(req.GetFields()[fieldTarget].GetStringValue())
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}

	return out
}

func stringList(value *structpb.Value) []string {
	items := value.GetListValue().GetValues()

	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.GetStringValue())
	}

	return out
}
