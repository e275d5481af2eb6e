/*
go-lesion measures small skin surface features from a short range depth
camera capture and tracks their identity across capture sessions.

A capture is raw per-pixel depth, a color image aligned to it and the
feature masks produced by an external segmentation model.  The Processor
calibrates the depth to millimeters, using the sensor intrinsics when they
are available or a circular reference marker in the scene otherwise, then
measures every feature concurrently.  The tracker subpackage matches the
measured features to previously tracked ones and the metrics subpackage
estimates healing trends over the tracked history.

See example code and usage in the example/measure subdirectory.
*/
package lesion
