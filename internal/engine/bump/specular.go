package bump

const specularVertex = `
uniform vec4 light;
uniform vec4 eye;
varying vec3 tsLight;
varying vec3 tsHalf;

void main() {
	vec3 n = normalize(gl_Normal);
	vec3 s = normalize(gl_MultiTexCoord1.xyz);
	vec3 t = normalize(gl_MultiTexCoord2.xyz);
	vec3 l = light.w > 0.0 ? light.xyz - gl_Vertex.xyz : light.xyz;
	vec3 e = eye.xyz - gl_Vertex.xyz;
	tsLight = vec3(dot(s, l), dot(t, l), dot(n, l));
	vec3 h = normalize(l) + normalize(e);
	tsHalf = vec3(dot(s, h), dot(t, h), dot(n, h));
	gl_TexCoord[0] = gl_MultiTexCoord0;
	gl_Position = ftransform();
}
`

const specularFragment = `
uniform sampler2D normalMap;
uniform vec4 specular;
uniform vec4 shininess;
varying vec3 tsLight;
varying vec3 tsHalf;

void main() {
	vec3 n = normalize(texture2D(normalMap, gl_TexCoord[0].st).rgb * 2.0 - 1.0);
	float lit = step(0.0, dot(n, normalize(tsLight)));
	float spec = pow(max(dot(n, normalize(tsHalf)), 0.0), shininess.x);
	gl_FragColor = vec4(specular.rgb * spec * lit, 1.0);
}
`
