package shaders

import (
	_ "embed"
)

//go:embed voxel_common.wgsl
var VoxelCommonWGSL string

//go:embed voxel_main.wgsl
var voxelMainWGSL string

//go:embed voxel_shadow.wgsl
var voxelShadowWGSL string

//go:embed resolve.wgsl
var ResolveWGSL string

// MainPassWGSL is the instanced voxel face shader for the HDR pass.
func MainPassWGSL() string { return VoxelCommonWGSL + voxelMainWGSL }

// ShadowPassWGSL is the depth-only variant used for shadow cascades.
func ShadowPassWGSL() string { return VoxelCommonWGSL + voxelShadowWGSL }
